package usecase

import (
	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
	"github.com/secmon-lab/checkerboard/pkg/service/slack"
)

type UseCases struct {
	store       interfaces.MappingStore
	concurrency int
	Refresher   *MappingRefresher
	Mapper      *Mapper
}

type Option func(*UseCases)

func WithConcurrency(n int) Option {
	return func(uc *UseCases) {
		uc.concurrency = n
	}
}

func New(directory slack.Directory, store interfaces.MappingStore, opts ...Option) *UseCases {
	uc := &UseCases{
		store:       store,
		concurrency: DefaultLookupConcurrency,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Refresher = NewMappingRefresher(directory, store, WithLookupConcurrency(uc.concurrency))
	uc.Mapper = NewMapper(store, uc.Refresher)

	return uc
}
