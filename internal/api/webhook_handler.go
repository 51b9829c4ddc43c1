package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	svix "github.com/svix/svix-webhooks/go"

	"taskboard/internal/service"
)

// WebhookHandler receives signed identity-provider callbacks and mirrors
// user.created / user.updated events into the users table.
type WebhookHandler struct {
	identityService service.IdentityService
	wh              *svix.Webhook
}

func NewWebhookHandler(identityService service.IdentityService, webhookSecret string) (*WebhookHandler, error) {
	wh, err := svix.NewWebhook(webhookSecret)
	if err != nil {
		return nil, err
	}

	return &WebhookHandler{
		identityService: identityService,
		wh:              wh,
	}, nil
}

type providerEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type providerUserData struct {
	ID             string  `json:"id"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	ImageURL       *string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (h *WebhookHandler) HandleProviderEvent(c *fiber.Ctx) error {
	svixID := c.Get("svix-id")
	svixTimestamp := c.Get("svix-timestamp")
	svixSignature := c.Get("svix-signature")

	// No verification attempt without the full header set.
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Error occured -- no svix headers")
	}

	payload := c.Body()

	headers := http.Header{}
	headers.Set("svix-id", svixID)
	headers.Set("svix-timestamp", svixTimestamp)
	headers.Set("svix-signature", svixSignature)

	if err := h.wh.Verify(payload, headers); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid webhook signature")
	}

	var event providerEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	if event.Type == "user.created" || event.Type == "user.updated" {
		if err := h.syncUser(c, event); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
	}

	return c.JSON(fiber.Map{"message": "Webhook processed"})
}

func (h *WebhookHandler) syncUser(c *fiber.Ctx, event providerEvent) error {
	var data providerUserData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	if len(data.EmailAddresses) == 0 {
		return errors.New("event payload has no email address")
	}

	_, err := h.identityService.SyncUser(c.Context(), service.SyncProfile{
		ClerkID:   data.ID,
		Email:     data.EmailAddresses[0].EmailAddress,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		ImageURL:  data.ImageURL,
	}, event.Type)

	return err
}
