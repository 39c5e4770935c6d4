package tools

import "context"

// Client-deferred tools. Their handlers only return a confirmation
// string; the real effect happens in the UI after the user reacts to the
// rendered affordance. The orchestrator ends the model's turn as soon as
// one of these is called and surfaces the pending call to the client. The
// client later sends a follow-up turn ("the action completed" or
// "cancelled by user") as an ordinary tool result.

func newNavigateToCalendarTool(deps Deps) *Tool {
	return &Tool{
		Name:         ToolNavigateToCalendar,
		Description:  "Take the user to their content calendar view. Use when the user asks to see their calendar or schedule.",
		ReturnDirect: true,
		Parameters: objectSchema(map[string]any{
			"month": stringProp("Month to show, YYYY-MM. Omit for the current month."),
		}),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			return "Navigating to the calendar.", nil
		},
	}
}

func newCreatePostTool(deps Deps) *Tool {
	return &Tool{
		Name:         ToolCreatePost,
		Description:  "Create a new post on the calendar for a given date. The user confirms the creation in the UI before it happens. Ask for the date and topic first if the user has not given them.",
		ReturnDirect: true,
		Parameters: objectSchema(map[string]any{
			"date":     stringProp("Target date, YYYY-MM-DD or a relative term like \"tomorrow\"."),
			"platform": stringProp("Target platform (instagram, facebook, tiktok). Omit if unknown."),
			"topic":    stringProp("What the post will be about."),
		}, "date"),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			if _, err := requireString(args, "date"); err != nil {
				return "", err
			}
			return "Asking the user to confirm creating the post.", nil
		},
	}
}

func newOpenPostTool(deps Deps) *Tool {
	return &Tool{
		Name:         ToolOpenPost,
		Description:  "Open a post in the editor so the user can see or edit it.",
		ReturnDirect: true,
		Parameters: objectSchema(map[string]any{
			"post_id": stringProp("The id of the post to open."),
		}, "post_id"),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			if _, err := requireString(args, "post_id"); err != nil {
				return "", err
			}
			return "Opening the post in the editor.", nil
		},
	}
}

func newApplyCaptionTool(deps Deps) *Tool {
	return &Tool{
		Name:         ToolApplyCaption,
		Description:  "Apply a caption to the post the user currently has open. The user confirms before the caption is written.",
		ReturnDirect: true,
		Parameters: objectSchema(map[string]any{
			"caption": stringProp("The caption text to apply."),
			"post_id": stringProp("The target post id. Omit to use the currently open post."),
		}, "caption"),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			if _, err := requireString(args, "caption"); err != nil {
				return "", err
			}
			return "Asking the user to confirm applying the caption.", nil
		},
	}
}
