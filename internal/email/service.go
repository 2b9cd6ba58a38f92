package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type EmailJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	retryIn  time.Duration
}

func New(rdb *redis.Client, fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass string) *Service {
	return &Service{
		redis:    rdb,
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
		send:     smtp.SendMail,
		retryIn:  5 * time.Second,
	}
}

func (s *Service) enqueue(ctx context.Context, job EmailJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", job.To, err)
		metrics.RecordEmail(job.Kind, "queue_failed")
		return err
	}

	metrics.RecordEmail(job.Kind, "queued")
	logger.Info("Email queued", "subject", job.Subject, "to", job.To)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
			s.QueueLength(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return
		}
		logger.Warn("Email queue unavailable, backing off", "error", err, "retry_in", s.retryIn.String())
		select {
		case <-ctx.Done():
		case <-time.After(s.retryIn):
		}
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryIn):
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Email to %s failed after %d attempts", job.To, maxTries)
			metrics.RecordEmail(job.Kind, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail(job.Kind, "sent")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\n"
	message += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return s.send(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

// QueueLength reports the pending jobs and publishes them on the queue gauge.
// A failed lookup leaves the gauge untouched.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

// ScheduleDetails describes the booking an automated decision was made on.
type ScheduleDetails struct {
	GymName  string
	Activity string
	Date     string
	Time     string
}

func (s *Service) SendScheduleConfirmed(ctx context.Context, to, name string, d ScheduleDetails) error {
	subject := "Booking Confirmed - " + d.GymName
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your booking has been confirmed.</p>
<ul>
<li>Gym: %s</li>
<li>Activity: %s</li>
<li>Date: %s</li>
<li>Time: %s</li>
</ul>
<p>See you at the gym!</p>
<p>- GymDesk</p>`,
		html.EscapeString(name), html.EscapeString(d.GymName), html.EscapeString(d.Activity),
		html.EscapeString(d.Date), html.EscapeString(d.Time))

	return s.enqueue(ctx, EmailJob{To: to, Name: name, Subject: subject, Body: body, Kind: "schedule_confirmed", Created: time.Now()})
}

func (s *Service) SendScheduleCancelled(ctx context.Context, to, name string, d ScheduleDetails, reason string) error {
	subject := "Booking Cancelled - " + d.GymName
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Unfortunately your booking has been cancelled.</p>
<ul>
<li>Gym: %s</li>
<li>Activity: %s</li>
<li>Date: %s</li>
<li>Time: %s</li>
</ul>
<p>Reason: %s</p>
<p>- GymDesk</p>`,
		html.EscapeString(name), html.EscapeString(d.GymName), html.EscapeString(d.Activity),
		html.EscapeString(d.Date), html.EscapeString(d.Time), html.EscapeString(reason))

	return s.enqueue(ctx, EmailJob{To: to, Name: name, Subject: subject, Body: body, Kind: "schedule_cancelled", Created: time.Now()})
}
