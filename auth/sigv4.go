package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/jonwraymond/sdkruntime/identity"
)

// UnsignedPayload is the payload hash used when the body cannot be read
// without consuming it.
const UnsignedPayload = "UNSIGNED-PAYLOAD"

const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// SigV4Config configures the SigV4 signer.
type SigV4Config struct {
	// SigningName is the fallback service name when neither the option nor
	// the endpoint config carries one.
	SigningName string

	// SigningRegion is the fallback region.
	SigningRegion string

	// DisableURIPathEscaping turns off double escaping of the path, as some
	// services require.
	DisableURIPathEscaping bool
}

// SigV4Signer signs requests with AWS Signature Version 4.
//
// The signing name and region come from, in order: the endpoint config
// ("signingName", "signingRegion"), the auth option properties, and the
// signer config.
type SigV4Signer struct {
	config SigV4Config
	signer *v4.Signer
}

// NewSigV4Signer creates a SigV4 signer.
func NewSigV4Signer(cfg SigV4Config) *SigV4Signer {
	return &SigV4Signer{
		config: cfg,
		signer: v4.NewSigner(func(o *v4.SignerOptions) {
			o.DisableURIPathEscaping = cfg.DisableURIPathEscaping
		}),
	}
}

// Sign signs req in place.
func (s *SigV4Signer) Sign(ctx context.Context, req *http.Request, id *identity.Identity, params SigningParams) error {
	creds, ok := identity.AWSCredentials(id)
	if !ok {
		return fmt.Errorf("%w: sigv4 needs Credentials, got %T", ErrWrongIdentity, dataOf(id))
	}

	name := firstNonEmpty(params.Config.String("signingName"), params.Option.Property(PropSigningName), s.config.SigningName)
	if name == "" {
		return fmt.Errorf("%w: %s", ErrMissingSigningArg, PropSigningName)
	}
	region := firstNonEmpty(params.Config.String("signingRegion"), params.Option.Property(PropSigningRegion), s.config.SigningRegion)
	if region == "" {
		return fmt.Errorf("%w: %s", ErrMissingSigningArg, PropSigningRegion)
	}

	hash, err := payloadHash(req)
	if err != nil {
		return err
	}
	req.Header.Set("X-Amz-Content-Sha256", hash)

	return s.signer.SignHTTP(ctx, creds, req, hash, name, region, params.Now)
}

// payloadHash hashes a replayable body without consuming it.
func payloadHash(req *http.Request) (string, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return emptyPayloadHash, nil
	}
	if req.GetBody == nil {
		return UnsignedPayload, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreplayableBody, err)
	}
	defer body.Close()

	h := sha256.New()
	if _, err := io.Copy(h, body); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreplayableBody, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReplayableBody sets req's body and GetBody from b so the request can be
// hashed and re-sent.
func ReplayableBody(req *http.Request, b []byte) {
	req.ContentLength = int64(len(b))
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	if len(b) == 0 {
		req.Body = http.NoBody
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
