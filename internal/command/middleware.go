package command

import (
	log "github.com/sirupsen/logrus"

	"github.com/bwmarrin/discordgo"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	if w.wrap != nil {
		return w.wrap(ctx)
	}
	return w.Command.Run(ctx)
}

func (w *wrappedCommand) Component(ctx *ComponentContext) error {
	if w.wrap != nil {
		return w.wrap(ctx)
	}
	if ch, ok := w.Command.(ComponentHandler); ok {
		return ch.Component(ctx)
	}
	return nil
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// WithGuildOnly drops interactions that arrive outside a guild (DMs).
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				switch v := ctx.(type) {
				case *SlashContext:
					if v.Event.GuildID == "" {
						return RespondEphemeral(v.Session, v.Event, "This command only works in a server.")
					}
				case *ComponentContext:
					if v.Event.GuildID == "" {
						return nil
					}
				}
				return runDispatch(cmd, ctx)
			},
		}
	}
}

// WithCommandLog logs every invocation with the caller and guild.
func WithCommandLog() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok && v.Event.Member != nil {
					log.Infof("[Command] /%s | guild=%s user=%s",
						cmd.Name(), v.Event.GuildID, v.Event.Member.User.Username)
				}
				return runDispatch(cmd, ctx)
			},
		}
	}
}

// runDispatch routes the context to the right handler on the inner command.
func runDispatch(cmd Command, ctx interface{}) error {
	if v, ok := ctx.(*ComponentContext); ok {
		if ch, ok := cmd.(ComponentHandler); ok {
			return ch.Component(v)
		}
		return nil
	}
	return cmd.Run(ctx)
}

// Apply wraps cmd with the given middlewares, outermost last.
func Apply(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}
