package mainmenu

import (
	"context"
	"fmt"
	"log/slog"

	"TripBot/bot/workflow"
	"TripBot/bot/workflows/shared"
	"TripBot/internal/lib/sl"
)

const FlowName = "mainmenu"

const (
	textWelcomeBack = "Welcome back, %s! 👋"
	textSignUpFirst = "Please sign up first with /start."
)

// Flow is the entry screen. It keeps no sessions.
type Flow struct {
	deps shared.Deps
	log  *slog.Logger
}

func New(deps shared.Deps) *Flow {
	return &Flow{
		deps: deps,
		log:  deps.Log.With(sl.Module(FlowName)),
	}
}

func (f *Flow) Name() string {
	return FlowName
}

func (f *Flow) Routes() []workflow.Route {
	return []workflow.Route{
		{Prefix: workflow.ActionMainMenu, Handle: f.handleMenu},
	}
}

func (f *Flow) Reset(int64) {}

func (f *Flow) handleMenu(ctx context.Context, ev workflow.Event, _ []int64) *workflow.Reply {
	exists, err := f.deps.Users.UserExists(ctx, ev.UserID)
	if err != nil {
		f.log.Error("check user", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if !exists {
		return workflow.Say(ev.ChatID, textSignUpFirst)
	}
	return shared.MainMenu(ev.ChatID)
}

// Greet answers /start of a registered user.
func (f *Flow) Greet(ev workflow.Event) *workflow.Reply {
	ctx := context.Background()
	user, err := f.deps.Users.FindUser(ctx, ev.UserID)
	if err != nil {
		f.log.Error("load user", sl.User(ev.UserID), sl.Err(err))
		return workflow.Say(ev.ChatID, shared.TextApology)
	}
	if user == nil {
		return workflow.Say(ev.ChatID, textSignUpFirst)
	}
	return workflow.Say(ev.ChatID, fmt.Sprintf(textWelcomeBack, user.Handle)).Then(shared.MainMenu(ev.ChatID))
}

// HandleCancel closes a dangling cancel button that no flow claims.
func (f *Flow) HandleCancel(_ context.Context, ev workflow.Event) *workflow.Reply {
	return shared.MainMenu(ev.ChatID)
}
