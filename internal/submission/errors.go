package submission

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Code string

const (
	CodeCreateError      Code = "CREATE_ERROR"
	CodeWebhookError     Code = "WEBHOOK_ERROR"
	CodeWebhookFailed    Code = "WEBHOOK_FAILED"
	CodeTimeoutError     Code = "TIMEOUT_ERROR"
	CodeNetworkError     Code = "NETWORK_ERROR"
	CodePollingTimeout   Code = "POLLING_TIMEOUT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAssessmentFailed Code = "ASSESSMENT_FAILED"
	CodeFetchError       Code = "FETCH_ERROR"
	CodeUnexpectedError  Code = "UNEXPECTED_ERROR"
)

// Error is the only error type handed to submission callers. Every instance is terminal for its session.
type Error struct {
	Code    Code
	Message string
	// Details carries diagnostics such as the http status and response body. It is logged, never shown.
	Details map[string]any
	Cause   error
}

func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, " (%s)", e.Cause)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the localized text a person should see for this error.
func (e *Error) UserMessage(tag language.Tag) string {
	return UserMessage(e.Code, tag)
}

// AsError returns err as an *Error, tagging anything foreign as UNEXPECTED_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(CodeUnexpectedError, err.Error(), err)
}

var messages = catalog.NewBuilder(catalog.Fallback(language.English))

func init() {
	entries := map[Code][2]string{
		CodeCreateError: {
			"We could not save your assessment request. Please try again.",
			"No pudimos guardar tu solicitud de evaluación. Inténtalo de nuevo.",
		},
		CodeWebhookError: {
			"The analysis service rejected the request. Please try again later.",
			"El servicio de análisis rechazó la solicitud. Inténtalo más tarde.",
		},
		CodeWebhookFailed: {
			"The analysis service could not start your assessment.",
			"El servicio de análisis no pudo iniciar tu evaluación.",
		},
		CodeTimeoutError: {
			"The analysis service took too long to answer.",
			"El servicio de análisis tardó demasiado en responder.",
		},
		CodeNetworkError: {
			"We could not reach the analysis service. Check your connection.",
			"No pudimos contactar el servicio de análisis. Revisa tu conexión.",
		},
		CodePollingTimeout: {
			"Your assessment is taking longer than expected. Check back later.",
			"Tu evaluación está tardando más de lo esperado. Vuelve más tarde.",
		},
		CodeNotFound: {
			"We could not find your assessment.",
			"No encontramos tu evaluación.",
		},
		CodeAssessmentFailed: {
			"The assessment could not be completed.",
			"No se pudo completar la evaluación.",
		},
		CodeFetchError: {
			"We could not check the status of your assessment.",
			"No pudimos consultar el estado de tu evaluación.",
		},
		CodeUnexpectedError: {
			"Something went wrong. Please try again.",
			"Algo salió mal. Inténtalo de nuevo.",
		},
	}

	for code, texts := range entries {
		_ = messages.SetString(language.English, string(code), texts[0])
		_ = messages.SetString(language.Spanish, string(code), texts[1])
	}
}

// supportedLanguages lists the catalog languages. The first one is the fallback.
var (
	supportedLanguages = []language.Tag{language.English, language.Spanish}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// UserMessage returns the text shown to users for code in the closest supported language.
func UserMessage(code Code, tag language.Tag) string {
	_, idx, _ := languageMatcher.Match(tag)
	p := message.NewPrinter(supportedLanguages[idx], message.Catalog(messages))
	return p.Sprintf(string(code))
}
