package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

// produceIssues emits the issues of a repository, each followed by its
// comments. Pull requests listed by the issues endpoint are skipped.
func (c *Connector) produceIssues(ctx context.Context, em *extract.Emitter, repo *gh.Repository) error {
	if !repo.GetHasIssues() {
		return nil
	}
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()

	issues := extract.Paginate(ctx, 0, func(ctx context.Context, page int) (extract.Page[*gh.Issue, int], error) {
		return pageOf[*gh.Issue](c.client.ListIssues(ctx, owner, name, page))
	})
	return extract.Each(issues, func(issue *gh.Issue) error {
		if issue.IsPullRequest() {
			return nil
		}

		entity := issueEntity(issue)
		if err := em.Emit(entity); err != nil {
			return err
		}
		if issue.GetComments() == 0 {
			return nil
		}
		return em.Descend(entity.Crumb(), func() error {
			return c.produceComments(ctx, em, owner, name, issue.GetNumber())
		})
	})
}

func (c *Connector) produceComments(ctx context.Context, em *extract.Emitter, owner, name string, number int) error {
	comments := extract.Paginate(ctx, 0, func(ctx context.Context, page int) (extract.Page[*gh.IssueComment, int], error) {
		return pageOf[*gh.IssueComment](c.client.ListIssueComments(ctx, owner, name, number, page))
	})
	return extract.Each(comments, func(comment *gh.IssueComment) error {
		return em.Emit(commentEntity(comment))
	})
}

func issueEntity(issue *gh.Issue) *domain.ChunkEntity {
	labels := make([]string, len(issue.Labels))
	for i, l := range issue.Labels {
		labels[i] = l.GetName()
	}
	assignees := make([]string, len(issue.Assignees))
	for i, a := range issue.Assignees {
		assignees[i] = a.GetLogin()
	}

	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:  stableID(issue.GetNodeID(), "issue", issue.GetID()),
			Type:      "issue",
			Name:      fmt.Sprintf("#%d %s", issue.GetNumber(), issue.GetTitle()),
			CreatedAt: domain.TimePtr(issue.GetCreatedAt().Time),
			UpdatedAt: domain.TimePtr(issue.GetUpdatedAt().Time),
			URL:       issue.GetHTMLURL(),
			Attributes: map[string]any{
				"number":    issue.GetNumber(),
				"state":     issue.GetState(),
				"author":    issue.GetUser().GetLogin(),
				"labels":    labels,
				"assignees": assignees,
				"milestone": issue.GetMilestone().GetTitle(),
				"comments":  issue.GetComments(),
			},
		},
		Content: issue.GetBody(),
	}
}

func commentEntity(comment *gh.IssueComment) *domain.ChunkEntity {
	author := comment.GetUser().GetLogin()
	return &domain.ChunkEntity{
		BaseEntity: domain.BaseEntity{
			EntityID:  stableID(comment.GetNodeID(), "comment", comment.GetID()),
			Type:      "issue_comment",
			Name:      "comment by " + author,
			CreatedAt: domain.TimePtr(comment.GetCreatedAt().Time),
			UpdatedAt: domain.TimePtr(comment.GetUpdatedAt().Time),
			URL:       comment.GetHTMLURL(),
			Attributes: map[string]any{
				"author": author,
			},
		},
		Content: comment.GetBody(),
	}
}
