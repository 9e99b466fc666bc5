package usecase

import (
	"errors"
	"fmt"
)

// 業務エラーの分類
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersistence       = errors.New("persistence error")
	ErrValidation        = errors.New("validation error")
	ErrDuplicateCheckout = errors.New("duplicate checkout")
)

// HandlerでHTTPステータスに変換するエラー
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 分類エラーを付けたHTTPError（errors.Isで判定できる）
func WrapHTTPError(status int, message string, kind error) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Err:     kind,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// LineKind はチェックアウト行の失敗理由
type LineKind string

const (
	LineKindInsufficientStock LineKind = "insufficient_stock"
	LineKindPersistence       LineKind = "persistence"
	LineKindNotFound          LineKind = "not_found"
)

// カート1行分のエラー。リクエスト全体は止めない。
type LineError struct {
	ProductID int64    `json:"productId"`
	Name      string   `json:"name"`
	Kind      LineKind `json:"kind"`
	Message   string   `json:"error"`
}

func (e LineError) Error() string {
	return e.Message
}

// errors.Is(lineErr, ErrInsufficientStock) のため
func (e LineError) Unwrap() error {
	switch e.Kind {
	case LineKindInsufficientStock:
		return ErrInsufficientStock
	case LineKindPersistence:
		return ErrPersistence
	case LineKindNotFound:
		return ErrNotFound
	}
	return nil
}

func unavailableInCartMessage(name string) string {
	return fmt.Sprintf("L'article %s n'est plus disponible dans la quantité demandée", name)
}

func unavailableAtCheckoutMessage(name string) string {
	return fmt.Sprintf("L'article %s n'a pu être ajouté à la commande car le stock est insuffisant", name)
}

func persistenceAtCheckoutMessage(name string) string {
	return fmt.Sprintf("L'article %s n'a pu être enregistré, veuillez réessayer", name)
}
