package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

func (c *Connector) producePulls(ctx context.Context, em *extract.Emitter, repo *gh.Repository) error {
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()

	pulls := extract.Paginate(ctx, 0, func(ctx context.Context, page int) (extract.Page[*gh.PullRequest, int], error) {
		return pageOf[*gh.PullRequest](c.client.ListPulls(ctx, owner, name, page))
	})
	return extract.Each(pulls, func(pr *gh.PullRequest) error {
		return em.Emit(pullEntity(pr))
	})
}

func pullEntity(pr *gh.PullRequest) *domain.ChunkEntity {
	state := pr.GetState()
	if pr.GetMerged() || pr.MergedAt != nil {
		state = "merged"
	}

	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:  stableID(pr.GetNodeID(), "pull", pr.GetID()),
			Type:      "pull_request",
			Name:      fmt.Sprintf("#%d %s", pr.GetNumber(), pr.GetTitle()),
			CreatedAt: domain.TimePtr(pr.GetCreatedAt().Time),
			UpdatedAt: domain.TimePtr(pr.GetUpdatedAt().Time),
			URL:       pr.GetHTMLURL(),
			Attributes: map[string]any{
				"number": pr.GetNumber(),
				"state":  state,
				"draft":  pr.GetDraft(),
				"author": pr.GetUser().GetLogin(),
				"base":   pr.GetBase().GetRef(),
				"head":   pr.GetHead().GetRef(),
			},
		},
		Content: pr.GetBody(),
	}
}
