package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/checkerboard/pkg/domain/interfaces"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const mappingsCollection = "slack_github_mappings"

// Firestore is a MappingStore backed by one Firestore collection. The
// document ID is the Slack user ID.
type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.MappingStore = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces the collection, e.g. for tests sharing a database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

// mappingDoc is the Firestore persistence model
type mappingDoc struct {
	GitHub    string    `firestore:"github"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{client: client}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) collection() *firestore.CollectionRef {
	if f.collectionPrefix != "" {
		return f.client.Collection(f.collectionPrefix + "_" + mappingsCollection)
	}
	return f.client.Collection(mappingsCollection)
}

// Get retrieves a single entry. A missing document means never checked.
func (f *Firestore) Get(ctx context.Context, slackID string) (string, bool, error) {
	snap, err := f.collection().Doc(slackID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to get mapping", goerr.V("slack_id", slackID))
	}

	var doc mappingDoc
	if err := snap.DataTo(&doc); err != nil {
		return "", false, goerr.Wrap(err, "failed to unmarshal mapping", goerr.V("slack_id", slackID))
	}

	return strings.ToLower(doc.GitHub), true, nil
}

// Set stores github lowercased
func (f *Firestore) Set(ctx context.Context, slackID, github string) error {
	doc := &mappingDoc{
		GitHub:    strings.ToLower(github),
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := f.collection().Doc(slackID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to set mapping", goerr.V("slack_id", slackID))
	}
	return nil
}

// Delete removes the document. Firestore treats deleting a missing document
// as success.
func (f *Firestore) Delete(ctx context.Context, slackID string) error {
	if _, err := f.collection().Doc(slackID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return goerr.Wrap(err, "failed to delete mapping", goerr.V("slack_id", slackID))
	}
	return nil
}

// Keys lists document IDs without reading document contents
func (f *Firestore) Keys(ctx context.Context) ([]string, error) {
	iter := f.collection().DocumentRefs(ctx)

	var keys []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate mapping keys")
		}
		keys = append(keys, ref.ID)
	}

	return keys, nil
}

// GetAll returns every document with a non-empty GitHub username
func (f *Firestore) GetAll(ctx context.Context) (map[string]string, error) {
	entries, err := f.Entries(ctx)
	if err != nil {
		return nil, err
	}

	for k, v := range entries {
		if v == "" {
			delete(entries, k)
		}
	}
	return entries, nil
}

// Entries returns every document, empty values included
func (f *Firestore) Entries(ctx context.Context) (map[string]string, error) {
	iter := f.collection().Documents(ctx)
	defer iter.Stop()

	result := make(map[string]string)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate mappings")
		}

		var doc mappingDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal mapping", goerr.V("slack_id", snap.Ref.ID))
		}
		result[snap.Ref.ID] = strings.ToLower(doc.GitHub)
	}

	return result, nil
}

func (f *Firestore) Close() error {
	if err := f.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
