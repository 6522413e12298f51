// Package push delivers notifications to devices through Firebase Cloud
// Messaging.
package push

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/types/notification"
)

var ErrAllFailed = errors.New("all push notifications failed")

type FCMService struct {
	log    *logger.Logger
	client *messaging.Client
}

// NewFCMService prefers base64 credentials JSON and falls back to a local
// service account file.
func NewFCMService(ctx context.Context, log *logger.Logger, encodedCreds, localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Info("initializing FCM from inline credentials")
	} else {
		if _, err := os.Stat(localFilePath); err != nil {
			return nil, fmt.Errorf("firebase credentials file %s: %w", localFilePath, err)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Info("initializing FCM from credentials file", "path", localFilePath)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{log: log.With("service", "FCM"), client: client}, nil
}

// SendPush sends one message per token. It returns the tokens FCM reports as
// unregistered so the caller can forget them, and ErrAllFailed when nothing
// was delivered.
func (s *FCMService) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	stringData := make(map[string]string, len(data))
	for k, v := range data {
		stringData[k] = fmt.Sprintf("%v", v)
	}

	var stale []string
	successCount, failureCount := 0, 0

	for _, t := range tokens {
		message := &messaging.Message{
			Token: t.Token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: stringData,
		}
		switch t.Platform {
		case "ios":
			message.APNS = &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
			}
		case "android":
			message.Android = &messaging.AndroidConfig{
				Priority:     "high",
				Notification: &messaging.AndroidNotification{Sound: "default"},
			}
		}

		if _, err := s.client.Send(ctx, message); err != nil {
			failureCount++
			if messaging.IsUnregistered(err) {
				stale = append(stale, t.Token)
				continue
			}
			s.log.Warn("FCM send failed", "platform", t.Platform, "error", err)
			continue
		}
		successCount++
	}

	s.log.Debug("FCM batch finished", "sent", successCount, "failed", failureCount, "stale", len(stale))

	if successCount == 0 && failureCount > 0 {
		return stale, ErrAllFailed
	}
	return stale, nil
}
