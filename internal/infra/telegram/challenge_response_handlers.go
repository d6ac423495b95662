// internal/infra/telegram/challenge_response_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"team_challenge_bot/internal/app"

	"gopkg.in/telebot.v3"
)

// RegisterChallengeResponseHandlers wires the inline-button callbacks that
// drive challenge item transitions: accept, decline and done.
func RegisterChallengeResponseHandlers(ctx context.Context, b *telebot.Bot, challengeService *app.ChallengeService) {
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := strings.TrimSpace(c.Callback().Data)

		action, itemID, err := parseChallengeCallback(data)
		if err != nil {
			c.Bot().OnError(fmt.Errorf("unhandled callback data by challenge_response_handler: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Неизвестное действие."})
		}

		switch action {
		case "accept":
			if err := challengeService.Accept(ctx, itemID, ""); err != nil {
				return respondChallengeError(c, data, itemID, err)
			}
			return c.Respond(&telebot.CallbackResponse{Text: "Челлендж принят!"})
		case "decline":
			if err := challengeService.Decline(ctx, itemID); err != nil {
				return respondChallengeError(c, data, itemID, err)
			}
			return c.Respond(&telebot.CallbackResponse{Text: "Челлендж отклонён."})
		case "done":
			if err := challengeService.Complete(ctx, itemID); err != nil {
				return respondChallengeError(c, data, itemID, err)
			}
			return c.Respond(&telebot.CallbackResponse{Text: "Челлендж выполнен, очки начислены!"})
		}

		return c.Respond(&telebot.CallbackResponse{Text: "Неизвестное действие."})
	})
}

// parseChallengeCallback splits callback data like "chl_accept_123".
func parseChallengeCallback(data string) (action string, itemID int64, err error) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 || parts[0] != "chl" {
		return "", 0, fmt.Errorf("invalid callback data format: %s", data)
	}
	itemID, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid item ID %q in callback: %w", parts[2], err)
	}
	return parts[1], itemID, nil
}

func respondChallengeError(c telebot.Context, data string, itemID int64, err error) error {
	if err == app.ErrChallengeTerminal || err == app.ErrChallengeStateConflict {
		// Stale button press on an already-resolved item.
		return c.Respond(&telebot.CallbackResponse{Text: "Этот челлендж уже завершён."})
	}
	c.Bot().OnError(fmt.Errorf("error processing callback %q for item %d: %w", data, itemID, err), c)
	return c.Respond(&telebot.CallbackResponse{Text: "Произошла ошибка."})
}
