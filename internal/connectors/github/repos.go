package github

import (
	"context"
	"iter"
	"strconv"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// repositories yields the configured repositories, or every accessible one.
func (c *Connector) repositories(ctx context.Context) iter.Seq2[*gh.Repository, error] {
	if len(c.config.Repos) == 0 {
		return extract.Paginate(ctx, 0, func(ctx context.Context, page int) (extract.Page[*gh.Repository, int], error) {
			return pageOf[*gh.Repository](c.client.ListRepos(ctx, page))
		})
	}
	return func(yield func(*gh.Repository, error) bool) {
		for _, full := range c.config.Repos {
			owner, name, _ := splitRepo(full)
			repo, err := c.client.GetRepo(ctx, owner, name)
			if !yield(repo, err) || err != nil {
				return
			}
		}
	}
}

// produceRepos emits each repository followed by everything beneath it.
func (c *Connector) produceRepos(ctx context.Context, em *extract.Emitter) error {
	return extract.Each(c.repositories(ctx), func(repo *gh.Repository) error {
		if !c.includeRepo(repo) {
			return nil
		}

		entity := repoEntity(repo)
		if err := em.Emit(entity); err != nil {
			return err
		}
		return em.Descend(entity.Crumb(), func() error {
			if c.config.HasContentType(ContentIssues) {
				if err := c.produceIssues(ctx, em, repo); err != nil {
					return err
				}
			}
			if c.config.HasContentType(ContentPRs) {
				if err := c.producePulls(ctx, em, repo); err != nil {
					return err
				}
			}
			if c.config.HasContentType(ContentFiles) {
				return c.produceFiles(ctx, em, repo)
			}
			return nil
		})
	})
}

// includeRepo applies the fork and archive filters.
func (c *Connector) includeRepo(r *gh.Repository) bool {
	if r.GetArchived() && !c.config.IncludeArchived {
		return false
	}
	if r.GetFork() && !c.config.IncludeForks {
		return false
	}
	return !r.GetDisabled()
}

func repoEntity(r *gh.Repository) *domain.ChunkEntity {
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:  stableID(r.GetNodeID(), "repo", r.GetID()),
			Type:      "repository",
			Name:      r.GetFullName(),
			CreatedAt: domain.TimePtr(r.GetCreatedAt().Time),
			UpdatedAt: domain.TimePtr(r.GetUpdatedAt().Time),
			URL:       r.GetHTMLURL(),
			Attributes: map[string]any{
				"owner":          r.GetOwner().GetLogin(),
				"default_branch": r.GetDefaultBranch(),
				"language":       r.GetLanguage(),
				"private":        r.GetPrivate(),
				"fork":           r.GetFork(),
				"stars":          r.GetStargazersCount(),
				"topics":         r.Topics,
			},
		},
		Content: r.GetDescription(),
	}
}

// stableID prefers the GraphQL node ID and falls back to kind:numeric-id.
func stableID(nodeID, kind string, id int64) string {
	if nodeID != "" {
		return nodeID
	}
	if id == 0 {
		return ""
	}
	return kind + ":" + strconv.FormatInt(id, 10)
}
