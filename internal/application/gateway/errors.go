package gateway

import (
	"errors"
	"fmt"
)

// Kind 失败类别
type Kind string

const (
	KindGeneration Kind = "generation"
	KindImage      Kind = "image"
)

// Reason 失败原因
type Reason string

const (
	ReasonInvalidInput Reason = "invalid_input"
	ReasonTransport    Reason = "transport"
	ReasonEmpty        Reason = "empty_payload"
	ReasonMalformed    Reason = "malformed_payload"
	ReasonInvalidShape Reason = "invalid_shape"
)

// Failure 网关调用失败；调用方只关心类别，原因用于日志与指标
type Failure struct {
	Kind   Kind
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s failure (%s)", f.Kind, f.Reason)
	}
	return fmt.Sprintf("%s failure (%s): %v", f.Kind, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func generationFailure(reason Reason, err error) *Failure {
	return &Failure{Kind: KindGeneration, Reason: reason, Err: err}
}

func imageFailure(reason Reason, err error) *Failure {
	return &Failure{Kind: KindImage, Reason: reason, Err: err}
}

// IsGenerationFailure 判断是否为世界生成失败
func IsGenerationFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindGeneration
}

// IsImageFailure 判断是否为图像生成失败
func IsImageFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindImage
}

// ReasonOf 返回失败原因，非 Failure 返回空
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
