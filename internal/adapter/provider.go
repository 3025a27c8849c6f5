package adapter

import "github.com/jun/cloudbridge/internal/model"

// CredentialReporter is implemented by adapters that may refresh their
// credentials as a side effect of an operation. The adapter never persists
// credentials itself; callers that care about durability fetch the snapshot
// after every call and store it.
type CredentialReporter interface {
	UpdatedCredentials() model.CredentialBundle
}
