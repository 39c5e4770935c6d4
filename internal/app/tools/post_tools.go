package tools

import (
	"context"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

func newListPostsTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolListPosts,
		Description: "List the posts scheduled on the user's calendar. Use this to answer questions about what is planned, find a post by topic, or check for free days.",
		Parameters: objectSchema(map[string]any{
			"status": stringProp("Filter by status (draft, scheduled, published). Omit for all."),
			"limit":  intProp("Maximum number of posts to return (default 20)."),
		}),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			posts, err := deps.Repo.GetPosts(ctx, tc.UserID, tc.CalendarID)
			if err != nil {
				return "", err
			}

			status := getString(args, "status")
			limit := getInt(args, "limit")
			if limit <= 0 {
				limit = 20
			}

			out := make([]*domain.Post, 0, len(posts))
			for _, p := range posts {
				if status != "" && p.Status != status {
					continue
				}
				out = append(out, p)
				if len(out) >= limit {
					break
				}
			}
			return marshalResult(map[string]any{"posts": out, "count": len(out)})
		},
	}
}

func newGetPostTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolGetPost,
		Description: "Fetch one post by its id, including its caption, platform, status and scheduled date.",
		Parameters: objectSchema(map[string]any{
			"post_id": stringProp("The id of the post to fetch."),
		}, "post_id"),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			id, err := requireString(args, "post_id")
			if err != nil {
				return "", err
			}
			post, err := deps.Repo.GetPost(ctx, tc.UserID, tc.CalendarID, domain.PostID(id))
			if err != nil {
				return "", err
			}
			return marshalResult(post)
		},
	}
}

func newGetCurrentPostTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolGetCurrentPost,
		Description: "Fetch the post the user currently has open in the editor. Takes no arguments.",
		Parameters:  objectSchema(map[string]any{}),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			if tc.Snapshot == nil || tc.Snapshot.PostID == "" {
				return marshalResult(map[string]any{"error": "no post is currently open"})
			}
			post, err := deps.Repo.GetPost(ctx, tc.UserID, tc.CalendarID, tc.Snapshot.PostID)
			if err != nil {
				return "", err
			}
			return marshalResult(post)
		},
	}
}

func newListMediaTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolListMedia,
		Description: "List the images and videos in the calendar's media library.",
		Parameters:  objectSchema(map[string]any{}),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			media, err := deps.Repo.GetMediaByCalendar(ctx, tc.UserID, tc.CalendarID)
			if err != nil {
				return "", err
			}
			return marshalResult(map[string]any{"media": media, "count": len(media)})
		},
	}
}
