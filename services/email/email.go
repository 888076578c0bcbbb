// Package emailsvc delivers core.EmailMessage values.
package emailsvc

import "github.com/shubhammm008/Infosys-Team5/core"

// New picks Sendgrid when an API key is configured and the console otherwise.
// In test mode messages go silently to outbox.
func New(conf *core.Config, logger core.Logger, outbox *Outbox) core.EmailService {
	switch {
	case conf.TestMode:
		if outbox == nil {
			outbox = new(Outbox)
		}
		return NewConsoleServiceMock(conf, outbox)
	case conf.SendgridApiKey != "":
		return NewSendgridService(conf, logger)
	}
	return NewConsoleService(conf, logger)
}
