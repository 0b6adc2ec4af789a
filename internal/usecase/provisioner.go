package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/domain"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/method"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/metrics"
)

const DefaultProvisionTimeout = 10 * time.Second

type HolderCreator interface {
	CreateHolder(ctx context.Context, ind method.Individual) (*method.Holder, error)
}

// AccountProvisioner creates a holder at the financial-data provider. It
// performs no existence check; callers only invoke it for users without a
// linked account.
type AccountProvisioner struct {
	holders HolderCreator
	timeout time.Duration
	logger  *slog.Logger
}

func NewAccountProvisioner(holders HolderCreator, timeout time.Duration, logger *slog.Logger) *AccountProvisioner {
	if timeout <= 0 {
		timeout = DefaultProvisionTimeout
	}
	return &AccountProvisioner{
		holders: holders,
		timeout: timeout,
		logger:  logger.With("component", "account_provisioner"),
	}
}

// ProvisionIfAbsent returns nil when the holder could not be created.
func (p *AccountProvisioner) ProvisionIfAbsent(ctx context.Context, user *domain.VerifiedUser) *domain.LinkedAccount {
	if user == nil || user.ID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	first, last := splitName(user.DisplayName, user.Email)
	start := time.Now()
	holder, err := p.holders.CreateHolder(ctx, method.Individual{
		FirstName: first,
		LastName:  last,
		Email:     user.Email,
		Phone:     user.PhoneNumber,
	})
	metrics.ProvisioningDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProvisioningTotal.WithLabelValues("failed").Inc()
		p.logger.ErrorContext(ctx, "provision linked account", "error", err)
		return nil
	}
	metrics.ProvisioningTotal.WithLabelValues("created").Inc()

	status := holder.Status
	if status == "" {
		status = domain.LinkedStatusActive
	}
	p.logger.InfoContext(ctx, "linked account provisioned", "linked_account_id", holder.ID)
	return &domain.LinkedAccount{ID: holder.ID, Status: status}
}

// splitName derives first and last name from the display name, falling back
// to the email local part. The provider requires both, so a single word is
// used for each.
func splitName(display, email string) (string, string) {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		fields = strings.Fields(strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(localPart(email)))
	}
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
