package dagpay

import (
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
)

type EnvironmentResolver interface {
	ResolveCallbackEnvironment(hint, environmentID, data string) (environment.Environment, error)
}

type Verification struct {
	Status      *InvoiceStatus
	Environment environment.Environment
}

// CallbackVerifier authenticates gateway-signed status records. Input is
// adversarial: nothing in it is trusted until the signature matches.
type CallbackVerifier struct {
	resolver EnvironmentResolver
	logger   logrus.FieldLogger
}

func NewCallbackVerifier(resolver EnvironmentResolver) *CallbackVerifier {
	return &CallbackVerifier{
		resolver: resolver,
		logger:   logrus.WithField("module", "dagpay-verifier"),
	}
}

// Verify checks payload against the secret of the environment it resolves to.
// hint is an optional environment name taken from the callback route.
func (v *CallbackVerifier) Verify(payload []byte, hint string) (*Verification, error) {
	status, err := ParseInvoiceStatus(payload)
	if err != nil {
		return nil, v.reject(payload, nil, &RejectionError{Reason: RejectMalformedPayload, Err: err})
	}

	env, err := v.resolver.ResolveCallbackEnvironment(hint, status.EnvironmentID, status.Data)
	if err != nil {
		return nil, v.reject(payload, nil, &RejectionError{
			Reason:            RejectUnknownEnvironment,
			ProvidedSignature: status.Signature,
			Err:               err,
		})
	}

	expected, err := status.ExpectedSignature(env.Secret)
	if err != nil {
		return nil, v.reject(payload, &env, &RejectionError{
			Reason:            RejectMalformedPayload,
			ProvidedSignature: status.Signature,
			Err:               err,
		})
	}

	if !signaturesEqual(expected, status.Signature) {
		return nil, v.reject(payload, &env, &RejectionError{
			Reason:            RejectSignatureMismatch,
			ExpectedSignature: expected,
			ProvidedSignature: status.Signature,
		})
	}

	if status.UserID != env.UserID || status.EnvironmentID != env.EnvironmentID {
		return nil, v.reject(payload, &env, &RejectionError{
			Reason:            RejectUnknownEnvironment,
			ExpectedSignature: expected,
			ProvidedSignature: status.Signature,
		})
	}

	return &Verification{Status: status, Environment: env}, nil
}

func (v *CallbackVerifier) reject(payload []byte, env *environment.Environment, rejection *RejectionError) error {
	entry := v.logger.WithFields(logrus.Fields{
		"reason":             string(rejection.Reason),
		"payload":            string(payload),
		"provided_signature": rejection.ProvidedSignature,
		"expected_signature": rejection.ExpectedSignature,
	})
	if env != nil {
		entry = entry.WithFields(env.LogFields())
	}
	if rejection.Err != nil {
		entry = entry.WithError(rejection.Err)
	}
	entry.Warn("status_callback_rejected")
	return rejection
}
