package resilience

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/invoiceworks/invoice-pipeline/internal/common"
)

// retryableCodes are transient AWS error codes: the dependency is expected to
// recover, so another attempt is safe.
var retryableCodes = map[string]struct{}{
	"ThrottlingException":                    {},
	"ProvisionedThroughputExceededException": {},
	"RequestLimitExceeded":                   {},
	"ServiceUnavailable":                     {},
	"InternalServerError":                    {},
	"InternalError":                          {},
	"ServiceException":                       {},
	"SlowDown":                               {},
	"TooManyRequestsException":               {},
}

// nonRetryableCodes are permanent failures: retrying would only repeat the
// same rejection.
var nonRetryableCodes = map[string]struct{}{
	"ValidationException":          {},
	"InvalidParameterException":    {},
	"AccessDeniedException":        {},
	"UnauthorizedOperation":        {},
	"InvalidDocumentException":     {},
	"UnsupportedDocumentException": {},
	"DocumentTooLargeException":    {},
	"BadDocumentException":         {},
}

// userMessages maps well-known codes to messages safe to surface to the end
// caller. Raw codes and technical details stay in the logs.
var userMessages = map[string]string{
	"UnsupportedDocumentException": "Document format not supported. Please use PDF, PNG, JPG, TIFF, or BMP.",
	"DocumentTooLargeException":    "Document is too large. Maximum size is 10MB for synchronous processing.",
	"BadDocumentException":         "Document appears to be corrupted or unreadable.",
	"ThrottlingException":          "Service is temporarily busy. Please try again in a few moments.",
	"InternalServerError":          "Service is temporarily unavailable.",
	"AccessDeniedException":        "Insufficient permissions to process document.",
	"ValidationException":          "Invalid request format.",
}

// Classify maps a raw dependency error onto the retryable/non-retryable
// taxonomy. Errors already in the taxonomy pass through unchanged. Unknown
// codes default to retryable only when the transport status is 5xx; anything
// 4xx-shaped fails closed so an unknown client error cannot cause a retry
// storm.
func Classify(dependency string, err error) error {
	if err == nil {
		return nil
	}
	var pe *common.ProcessingError
	if errors.As(err, &pe) {
		return err
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		message := userMessages[code]
		if _, ok := nonRetryableCodes[code]; ok {
			if message == "" {
				message = fmt.Sprintf("%s request was rejected", dependency)
			}
			return common.NewNonRetryableError(code, message, err)
		}
		if _, ok := retryableCodes[code]; ok {
			if message == "" {
				message = fmt.Sprintf("%s is temporarily unavailable", dependency)
			}
			return common.NewRetryableError(code, message, err)
		}
		if httpStatus(err)/100 == 5 {
			return common.NewRetryableError(code, fmt.Sprintf("%s failed with a server error", dependency), err)
		}
		return common.NewNonRetryableError(code, fmt.Sprintf("%s failed with an unexpected error", dependency), err)
	}

	// Not a dependency error (encoding bugs, cancelled contexts): never retry.
	return common.NewNonRetryableError("", fmt.Sprintf("%s call failed", dependency), err)
}

func httpStatus(err error) int {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

// Classifier returns a classification function bound to one dependency name,
// in the shape the retry wrapper expects.
func Classifier(dependency string) func(error) error {
	return func(err error) error {
		return Classify(dependency, err)
	}
}
