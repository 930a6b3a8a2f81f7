package identity

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// AWSCredentialsResolver resolves Credentials identities from an
// aws.CredentialsProvider.
type AWSCredentialsResolver struct {
	provider aws.CredentialsProvider
}

// FromAWSCredentialsProvider adapts an AWS SDK credentials provider, such as
// credentials.StaticCredentialsProvider or an STS assume-role provider.
func FromAWSCredentialsProvider(p aws.CredentialsProvider) *AWSCredentialsResolver {
	return &AWSCredentialsResolver{provider: p}
}

// ResolveIdentity retrieves credentials from the provider.
func (r *AWSCredentialsResolver) ResolveIdentity(ctx context.Context) (*Identity, error) {
	creds, err := r.provider.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	if !creds.HasKeys() {
		return nil, ErrNoCredential
	}

	var exp time.Time
	if creds.CanExpire {
		exp = creds.Expires
	}
	return New(Credentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
		AccountID:       creds.AccountID,
	}, exp), nil
}

// AWSCredentials converts a Credentials identity into aws.Credentials for
// the AWS SDK signers.
func AWSCredentials(id *Identity) (aws.Credentials, bool) {
	c, ok := As[Credentials](id)
	if !ok {
		return aws.Credentials{}, false
	}
	exp, canExpire := id.Expiration()
	return aws.Credentials{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		AccountID:       c.AccountID,
		CanExpire:       canExpire,
		Expires:         exp,
	}, true
}

var _ Resolver = (*AWSCredentialsResolver)(nil)
