package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/checkerboard/pkg/domain/model"
)

func TestNewGitHubUsername(t *testing.T) {
	gt.Value(t, model.NewGitHubUsername("  OctoCat ")).Equal(model.GitHubUsername("octocat"))
	gt.Value(t, model.NewGitHubUsername("")).Equal(model.GitHubUsername(""))
}

func TestNewUserMap(t *testing.T) {
	t.Run("builds both directions and lowercases values", func(t *testing.T) {
		m := model.NewUserMap(map[string]string{
			"U1": "GitHubUser",
			"U2": "other",
		})

		gt.Number(t, m.Len()).Equal(2)
		gt.Value(t, m.SlackToGitHub["U1"]).Equal(model.GitHubUsername("githubuser"))
		gt.Value(t, m.GitHubToSlack["githubuser"]).Equal(model.SlackUserID("U1"))
		gt.Value(t, m.GitHubToSlack["other"]).Equal(model.SlackUserID("U2"))
	})

	t.Run("drops empty sentinel values", func(t *testing.T) {
		m := model.NewUserMap(map[string]string{
			"U1": "githubuser",
			"U2": "",
		})

		gt.Number(t, m.Len()).Equal(1)
		_, ok := m.SlackToGitHub["U2"]
		gt.Bool(t, ok).False()
		_, ok = m.GitHubToSlack[""]
		gt.Bool(t, ok).False()
	})

	t.Run("nil map has zero length", func(t *testing.T) {
		var m *model.UserMap
		gt.Number(t, m.Len()).Equal(0)
	})
}
