package storehttp

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/xelns/xelns-web/internal/xerrors"
)

// SSMAPI is the subset of the SSM client used to fetch the write token.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadToken reads the store write token from a SecureString parameter.
func LoadToken(ctx context.Context, client SSMAPI, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", name)
	}
	tok := strings.TrimSpace(*out.Parameter.Value)
	if tok == "" {
		return "", xerrors.Newf("SSM parameter %s is empty", name)
	}
	return tok, nil
}
