package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"team_challenge_bot/internal/app"
	"team_challenge_bot/internal/domain/challenge"
	"team_challenge_bot/internal/domain/org"
	idb "team_challenge_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers registers the administrator commands that drive the
// challenge staging flow: generate candidates, inspect the pending batch,
// promote it into scheduled items, or discard it.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	stagingService *app.StagingService,
	challengeService *app.ChallengeService,
	scheduleService *app.ScheduleService,
	orgDirectory org.Directory,
	generator challenge.Generator,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	b.Handle("/list_schedules", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/list_schedules",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /list_schedules <OrgID> [page]
		if len(args) < 1 || len(args) > 2 {
			return c.Send("Неверный формат команды. Используйте: /list_schedules <OrgID> [страница]")
		}
		orgID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Ошибка: OrgID должен быть числом.")
		}
		page := 1
		if len(args) == 2 {
			if page, err = strconv.Atoi(args[1]); err != nil {
				return c.Send("Ошибка: страница должна быть числом.")
			}
		}

		items, page, totalPages, err := scheduleService.ListPage(ctx, orgID, page, 10)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list schedules")
			return c.Send("Произошла ошибка при получении списка рассылок.")
		}
		if totalPages == 0 {
			return c.Send("У этой организации пока нет рассылок.")
		}

		var list strings.Builder
		list.WriteString(fmt.Sprintf("Рассылки (стр. %d из %d):\n\n", page, totalPages))
		for _, def := range items {
			list.WriteString(fmt.Sprintf("#%d %s — %s (%s)\n", def.ID, def.Title, def.NotifyTime, def.Status))
		}
		return c.Send(list.String())
	})

	b.Handle("/generate_challenges", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/generate_challenges",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /generate_challenges <OrgID> [count]
		if len(args) < 1 || len(args) > 2 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Неверный формат команды. Используйте: /generate_challenges <OrgID> [количество]")
		}

		orgID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Ошибка: OrgID должен быть числом.")
		}
		count := 3
		if len(args) == 2 {
			if count, err = strconv.Atoi(args[1]); err != nil || count < 1 {
				return c.Send("Ошибка: количество должно быть положительным числом.")
			}
		}

		candidates, err := generator.GenerateCandidates(ctx, orgID, count)
		if err != nil {
			handlerLogger.WithError(err).Error("Candidate generation failed")
			return c.Send("Произошла ошибка при генерации челленджей. Попробуйте позже.")
		}

		batchID, err := stagingService.Save(ctx, c.Sender().ID, c.Chat().ID, orgID, candidates, 0)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to stage candidate batch")
			return c.Send("Произошла ошибка при сохранении черновика челленджей.")
		}

		handlerLogger.WithFields(logrus.Fields{"batch_id": batchID, "candidates": len(candidates)}).
			Info("Candidate batch staged")

		var preview strings.Builder
		preview.WriteString(fmt.Sprintf("Сгенерировано %d челленджей:\n\n", len(candidates)))
		for i, cand := range candidates {
			preview.WriteString(fmt.Sprintf("%d. [%s] %s (%d очков)\n", i+1, cand.TimeSlot, cand.Text, cand.Points))
		}
		preview.WriteString("\nИспользуйте /promote_challenges для отправки или /cancel_challenges для отмены.")
		return c.Send(preview.String())
	})

	b.Handle("/promote_challenges", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/promote_challenges",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		created, err := challengeService.PromoteBatch(ctx, c.Sender().ID)
		if err != nil {
			if err == idb.ErrBatchNotFound {
				return c.Send("Нет черновика челленджей для отправки. Сначала используйте /generate_challenges.")
			}
			handlerLogger.WithError(err).Error("Batch promotion failed")
			return c.Send("Произошла ошибка при планировании челленджей.")
		}

		handlerLogger.WithField("items_created", created).Info("Batch promoted")
		return c.Send(fmt.Sprintf("Запланировано %d челленджей.", created))
	})

	b.Handle("/offer_challenge", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/offer_challenge",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /offer_challenge <RecipientID>
		if len(args) != 1 {
			return c.Send("Неверный формат команды. Используйте: /offer_challenge <RecipientID>")
		}
		recipientID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Ошибка: RecipientID должен быть числом.")
		}

		rcpt, err := orgDirectory.GetRecipient(ctx, recipientID)
		if err != nil {
			if err == idb.ErrRecipientNotFound {
				return c.Send("Ошибка: получатель не найден.")
			}
			handlerLogger.WithError(err).Error("Failed to load recipient")
			return c.Send("Произошла ошибка при поиске получателя.")
		}
		if !rcpt.Deliverable() {
			return c.Send("Ошибка: у получателя нет привязанного чата.")
		}

		candidates, err := generator.GenerateCandidates(ctx, rcpt.OrgID, 1)
		if err != nil || len(candidates) == 0 {
			handlerLogger.WithError(err).Error("Candidate generation failed")
			return c.Send("Произошла ошибка при генерации челленджа.")
		}

		item, err := challengeService.Offer(ctx, c.Sender().ID, rcpt, candidates[0])
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to offer challenge")
			return c.Send("Произошла ошибка при создании челленджа.")
		}

		handlerLogger.WithFields(logrus.Fields{"item_id": item.ID, "recipient_id": recipientID}).
			Info("Challenge offered")
		return c.Send(fmt.Sprintf("Челлендж #%d предложен получателю.", item.ID))
	})

	b.Handle("/cancel_challenges", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/cancel_challenges",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		if err := stagingService.Cancel(ctx, c.Sender().ID); err != nil {
			if err == idb.ErrBatchNotFound {
				return c.Send("Нет черновика челленджей для отмены.")
			}
			handlerLogger.WithError(err).Error("Failed to cancel staged batch")
			return c.Send("Произошла ошибка при отмене черновика.")
		}

		handlerLogger.Info("Staged batch cancelled")
		return c.Send("Черновик челленджей отменён.")
	})
}
