package services

import (
	"fmt"
	"os"

	"construction-tracking-api/config"
	"construction-tracking-api/models"
	"construction-tracking-api/utils"

	"github.com/sirupsen/logrus"
)

// Notifier sends best-effort workflow e-mails. Delivery failures are logged
// and swallowed: a rejected record stays rejected whether or not the mail
// went out.
type Notifier struct {
	log     *logrus.Logger
	enabled bool
}

func NewNotifier(logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Notifier{
		log:     logger,
		enabled: os.Getenv("NOTIFY_EMAILS") == "1",
	}
}

// KPIRejected notifies the record's author that their entry was rejected.
// The created_by value only holds an address for snake_case-era rows;
// anything else is skipped silently.
func (n *Notifier) KPIRejected(rec models.KPIRecord, reason, actor string) {
	if !n.enabled {
		return
	}
	if !utils.ValidateEmail(rec.CreatedBy) {
		return
	}

	subject := fmt.Sprintf("KPI entry rejected: %s / %s", rec.ProjectFullCode, rec.ActivityName)
	body := fmt.Sprintf(
		"<p>Your KPI entry for <b>%s</b> (%s, quantity %.2f) was rejected by %s.</p><p>Reason: %s</p>",
		rec.ActivityName, rec.ProjectFullCode, rec.Quantity, actor, reason,
	)
	if err := config.SendMail([]string{rec.CreatedBy}, subject, body); err != nil {
		n.log.WithError(err).WithField("to", rec.CreatedBy).Warn("rejection notification not sent")
	}
}
