package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// codeCharset excludes lookalike characters since customers read these
	// codes off a printed voucher
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// CodeLength is the length of a generated voucher code
	CodeLength = 10

	// maxCodeAttempts bounds the collision retry loop
	maxCodeAttempts = 10
)

// CodeGenerator produces globally unique voucher codes
type CodeGenerator struct {
	orders repository.OrderRepository
}

// NewCodeGenerator creates a new code generator backed by the order repository
func NewCodeGenerator(orders repository.OrderRepository) *CodeGenerator {
	return &CodeGenerator{orders: orders}
}

// GenerateCode produces a cryptographically random code of the given length
// drawn from the fixed charset
func GenerateCode(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(codeCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random bytes for voucher code")
		}
		sb.WriteByte(codeCharset[n.Int64()])
	}
	return sb.String(), nil
}

// GenerateUniqueCode generates a code that no existing order uses. It retries
// a bounded number of times on collision; if every attempt collides it appends
// a time-derived suffix to the last candidate instead of looping forever. The
// suffixed code is uglier but guaranteed unique enough, and the unique index
// on the orders table is the final backstop.
func (g *CodeGenerator) GenerateUniqueCode(ctx context.Context) (string, error) {
	var candidate string
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode(CodeLength)
		if err != nil {
			return "", err
		}
		candidate = code

		exists, err := g.orders.CodeExists(ctx, candidate)
		if err != nil {
			return "", errors.Wrap(err, "failed to check voucher code uniqueness")
		}
		if !exists {
			return candidate, nil
		}

		log.Warn().
			Str("code", candidate).
			Int("attempt", attempt+1).
			Msg("Voucher code collision, retrying")
	}

	suffix := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	fallback := candidate + suffix
	log.Warn().
		Str("code", fallback).
		Msg("Voucher code generation exhausted retries, using time-suffixed fallback")
	return fallback, nil
}
