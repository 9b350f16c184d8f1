package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

const (
	// accountCodeAlphabet deliberately drops 0/O/1/I/L so codes read
	// unambiguously off a printed label.
	accountCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	accountCodeLength   = 6

	salesRepCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ"
	salesRepSuffixLength = 3

	defaultCodeMaxAttempts = 20
)

// CodeService generates and manages referral codes. Generated values are
// checked against the case-insensitive active set before they are handed out.
type CodeService struct {
	codes       referral.CodeRepository
	maxAttempts int
	logger      *zap.Logger
}

// NewCodeService creates a new CodeService
func NewCodeService(codes referral.CodeRepository, maxAttempts int, logger *zap.Logger) *CodeService {
	if maxAttempts <= 0 {
		maxAttempts = defaultCodeMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeService{codes: codes, maxAttempts: maxAttempts, logger: logger}
}

// GenerateAccountCode creates and persists a 6-character account code.
func (s *CodeService) GenerateAccountCode(ctx context.Context) (*referral.Code, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		value, err := randomString(accountCodeAlphabet, accountCodeLength)
		if err != nil {
			return nil, err
		}
		code, err := s.claim(ctx, value, func(v string) (*referral.Code, error) {
			return referral.NewAccountCode(v)
		})
		if err != nil {
			return nil, err
		}
		if code != nil {
			return code, nil
		}
	}
	s.logger.Warn("account code generation exhausted", zap.Int("attempts", s.maxAttempts))
	return nil, shared.ErrCodeGenerationExhausted
}

// GenerateSalesRepCode creates and persists a sales-rep code: the rep's two
// initials followed by three random letters.
func (s *CodeService) GenerateSalesRepCode(ctx context.Context, salesRepID uuid.UUID, repName string) (*referral.Code, error) {
	initials := repInitials(repName)
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		suffix, err := randomString(salesRepCodeAlphabet, salesRepSuffixLength)
		if err != nil {
			return nil, err
		}
		code, err := s.claim(ctx, initials+suffix, func(v string) (*referral.Code, error) {
			return referral.NewSalesRepCode(v, salesRepID)
		})
		if err != nil {
			return nil, err
		}
		if code != nil {
			return code, nil
		}
	}
	s.logger.Warn("sales rep code generation exhausted",
		zap.String("sales_rep_id", salesRepID.String()),
		zap.Int("attempts", s.maxAttempts))
	return nil, shared.ErrCodeGenerationExhausted
}

// claim persists a candidate value unless it collides with an active code.
// Returns nil, nil on collision so the caller can try another value.
func (s *CodeService) claim(ctx context.Context, value string, build func(string) (*referral.Code, error)) (*referral.Code, error) {
	exists, err := s.codes.ActiveValueExists(ctx, value)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	code, err := build(value)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Create(ctx, code); err != nil {
		// The uniqueness check raced another generator; treat a duplicate
		// insert as a collision and retry.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, nil
		}
		return nil, err
	}
	return code, nil
}

// Assign links an available code to a referral prospect.
func (s *CodeService) Assign(ctx context.Context, value, actor string, referralID uuid.UUID) (*referral.Code, error) {
	return s.mutate(ctx, value, func(code *referral.Code) error {
		return code.Assign(actor, referralID)
	})
}

// Revoke invalidates an assigned code.
func (s *CodeService) Revoke(ctx context.Context, value, actor string) (*referral.Code, error) {
	return s.mutate(ctx, value, func(code *referral.Code) error {
		return code.Revoke(actor)
	})
}

// Retire removes a code from circulation permanently.
func (s *CodeService) Retire(ctx context.Context, value, actor string) (*referral.Code, error) {
	return s.mutate(ctx, value, func(code *referral.Code) error {
		return code.Retire(actor)
	})
}

// ListBySalesRep returns the codes a sales rep has issued.
func (s *CodeService) ListBySalesRep(ctx context.Context, salesRepID uuid.UUID) ([]*referral.Code, error) {
	return s.codes.FindBySalesRep(ctx, salesRepID)
}

func (s *CodeService) mutate(ctx context.Context, value string, op func(*referral.Code) error) (*referral.Code, error) {
	code, err := s.codes.FindByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if err := op(code); err != nil {
		return nil, err
	}
	if err := s.codes.Save(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// repInitials derives two uppercase initials from a rep's name, padding with
// X when the name yields fewer than two.
func repInitials(name string) string {
	var initials []rune
	for _, part := range strings.Fields(name) {
		for _, r := range part {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			if r >= 'A' && r <= 'Z' {
				initials = append(initials, r)
			}
			break
		}
		if len(initials) == 2 {
			break
		}
	}
	for len(initials) < 2 {
		initials = append(initials, 'X')
	}
	return string(initials)
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
