package domain

import "errors"

// ErrStoryNotFound はリポジトリでストーリーが見つからなかった場合に返されます。
var ErrStoryNotFound = errors.New("story not found")

// ValidationError はリクエスト形状の不備を表します。API層では 4xx に対応します。
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidation は単純なバリデーションエラーを生成します。
func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// NewValidationWrap は原因エラーを包んだバリデーションエラーを生成します。
func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// ContentIntegrityError はコンテンツの正しさの問題を表します。
// リクエスト形状は正しいが、抽出された内容がURLのトピックと一致しない・
// URLから一切本文が取れなかった、といったケースです。バリデーションエラーとは区別して返します。
type ContentIntegrityError struct {
	Message string
	Err     error
}

func (e *ContentIntegrityError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ContentIntegrityError) Unwrap() error {
	return e.Err
}

// NewContentIntegrity はコンテンツ整合性エラーを生成します。
func NewContentIntegrity(msg string) *ContentIntegrityError {
	return &ContentIntegrityError{Message: msg}
}

// IsValidation は err がバリデーションエラーか判定します。
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsContentIntegrity は err がコンテンツ整合性エラーか判定します。
func IsContentIntegrity(err error) bool {
	var target *ContentIntegrityError
	return errors.As(err, &target)
}
