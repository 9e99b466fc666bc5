package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storefront/internal/usecase"
)

var (
	// カード番号がVisa/MasterCardの形式でない
	ErrInvalidCardNumber = fmt.Errorf("%w: invalid card number", usecase.ErrValidation)

	// 有効期限の形式が不正（YYYY/MM）
	ErrInvalidExpiration = fmt.Errorf("%w: invalid expiration date", usecase.ErrValidation)

	// 期限切れ
	ErrCardExpired = fmt.Errorf("%w: card expired", usecase.ErrValidation)
)

var (
	visaRe       = regexp.MustCompile(`^4\d{15}$`)
	masterCardRe = regexp.MustCompile(`^5[1-5]\d{14}$`)
	separatorRe  = regexp.MustCompile(`[\s-]`)
)

type paymentValidator struct {
	now func() time.Time
}

// Usecaseは interface を依存注入
func NewPaymentValidator() usecase.PaymentValidator {
	return &paymentValidator{now: time.Now}
}

// テスト用に現在時刻を差し替える
func NewPaymentValidatorAt(now func() time.Time) usecase.PaymentValidator {
	return &paymentValidator{now: now}
}

func (v *paymentValidator) Validate(cardNumber string, dateExpiration string) error {
	if err := ValidateCardNumber(cardNumber); err != nil {
		return err
	}
	return v.validateExpiration(dateExpiration)
}

// 空白とハイフンを除いてVisa（4で始まる16桁）かMasterCard（51〜55で始まる16桁）
func ValidateCardNumber(cardNumber string) error {
	cleaned := separatorRe.ReplaceAllString(cardNumber, "")
	if visaRe.MatchString(cleaned) || masterCardRe.MatchString(cleaned) {
		return nil
	}
	return ErrInvalidCardNumber
}

// YYYY/MM。今月は有効
func (v *paymentValidator) validateExpiration(s string) error {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return ErrInvalidExpiration
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || year < 1000 {
		return ErrInvalidExpiration
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 {
		return ErrInvalidExpiration
	}

	now := v.now()
	curYear, curMonth := now.Year(), int(now.Month())
	if year < curYear || (year == curYear && month < curMonth) {
		return ErrCardExpired
	}
	return nil
}
