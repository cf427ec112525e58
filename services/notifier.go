package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/eventra/eventra_backend/config"
	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/utils"
	"github.com/eventra/eventra_backend/websocket"
)

// Notifier fans engine events out to agents: websocket push, FCM, email and a
// persisted in-app notification. Delivery is best effort and never blocks or
// fails the calling operation.
type Notifier struct {
	db  *mongo.Client
	hub *websocket.Hub
}

func NewNotifier(db *mongo.Client, hub *websocket.Hub) *Notifier {
	return &Notifier{db: db, hub: hub}
}

// TierPromoted tells an agent they crossed into a higher commission tier.
func (n *Notifier) TierPromoted(agentID, organizerID primitive.ObjectID, tierName string, salesVolume int64) {
	go n.deliver(agentID,
		"Commission Tier Promotion",
		fmt.Sprintf("Congratulations! Your sales volume reached %s and promoted you to the %s tier.", utils.FormatCents(salesVolume), tierName),
		models.NotificationTypeTierPromoted,
		map[string]interface{}{
			"tier":        tierName,
			"organizerId": organizerID.Hex(),
			"salesVolume": fmt.Sprintf("%d", salesVolume),
		})
}

// PayoutCompleted tells every agent paid by the batch that their money is on
// the way.
func (n *Notifier) PayoutCompleted(batch *models.PayoutBatch) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		collection := n.db.Database(config.DatabaseName()).Collection("commission_records")
		cursor, err := collection.Find(ctx, bson.M{"payoutBatchId": batch.ID})
		if err != nil {
			log.Printf("Failed to load records for payout notification %s: %v", batch.Reference, err)
			return
		}
		defer cursor.Close(ctx)

		// One notification per agent, with their share of the batch.
		amountByAgent := make(map[primitive.ObjectID]int64)
		for cursor.Next(ctx) {
			var rec models.CommissionRecord
			if err := cursor.Decode(&rec); err != nil {
				continue
			}
			amountByAgent[rec.AgentID] += rec.NetAmount
		}

		for agentID, amount := range amountByAgent {
			n.deliver(agentID,
				"Commission Payout Processed",
				fmt.Sprintf("Your commission payout of %s has been processed via %s.", utils.FormatCents(amount), batch.PaymentMethod),
				models.NotificationTypePayoutCompleted,
				map[string]interface{}{
					"batchReference": batch.Reference,
					"paymentMethod":  batch.PaymentMethod,
					"amount":         fmt.Sprintf("%d", amount),
				})
		}
	}()
}

// DisputeResolved tells the agent how a dispute on their commission closed.
func (n *Notifier) DisputeResolved(dispute *models.PaymentDispute) {
	message := "The dispute on your commission was resolved in your favor."
	if dispute.Outcome == models.DisputeOutcomeResolvedRejected {
		message = "The dispute on your commission was rejected."
	}
	data := map[string]interface{}{
		"disputeId": dispute.ID.Hex(),
		"recordId":  dispute.RecordID.Hex(),
		"outcome":   dispute.Outcome,
	}
	if dispute.AdjustmentRecordID != nil {
		data["adjustmentRecordId"] = dispute.AdjustmentRecordID.Hex()
	}
	go n.deliver(dispute.AgentID, "Commission Dispute Resolved", message, models.NotificationTypeDisputeResolved, data)
}

// deliver pushes one notification through every channel. Channel failures are
// logged and swallowed.
func (n *Notifier) deliver(userID primitive.ObjectID, title, message, notifType string, data map[string]interface{}) {
	if n.hub != nil {
		if err := n.hub.SendToUser(userID, websocket.Notification{
			Type:    notifType,
			Message: message,
			Data:    data,
		}); err != nil {
			log.Printf("Websocket delivery to %s skipped: %v", userID.Hex(), err)
		}
	}

	if err := n.saveNotification(userID, title, message, notifType, data); err != nil {
		log.Printf("Failed to save notification for %s: %v", userID.Hex(), err)
	}

	if err := n.sendFCM(userID, title, message, notifType, data); err != nil {
		log.Printf("FCM delivery to %s skipped: %v", userID.Hex(), err)
	}

	if notifType == models.NotificationTypePayoutCompleted {
		if err := n.sendEmail(userID, title, message); err != nil {
			log.Printf("Email delivery to %s skipped: %v", userID.Hex(), err)
		}
	}
}

// saveNotification saves an in-app notification to the database
func (n *Notifier) saveNotification(userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := n.db.Database(config.DatabaseName()).Collection("notifications")
	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(ctx, notification)
	return err
}

// sendFCM sends a Firebase Cloud Messaging push to the user's device
func (n *Notifier) sendFCM(userID primitive.ObjectID, title, message, notifType string, data map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	collection := n.db.Database(config.DatabaseName()).Collection("users")
	if err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.FCMToken == "" {
		return fmt.Errorf("user has no FCM token")
	}
	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase app not initialized")
	}

	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	notificationData := map[string]string{
		"type":      notifType,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for key, value := range data {
		if str, ok := value.(string); ok {
			notificationData[key] = str
		}
	}

	fcmMessage := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "eventra_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  message,
					},
					Sound: "default",
					Badge: func() *int { v := 1; return &v }(),
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}
	log.Printf("FCM notification sent to user %s: %s", userID.Hex(), response)
	return nil
}

// sendEmail sends a plain-text email using the SMTP settings from env
func (n *Notifier) sendEmail(userID primitive.ObjectID, subject, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	collection := n.db.Database(config.DatabaseName()).Collection("users")
	if err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	if smtpHost == "" {
		return fmt.Errorf("SMTP not configured")
	}
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", fmt.Sprintf("Dear %s,\n\n%s\n\nBest regards,\nEventra", user.FullName, body))

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}
