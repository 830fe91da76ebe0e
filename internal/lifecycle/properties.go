package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dwsmith1983/agentcore-gateway/pkg/types"
)

// ErrMissingProperty is returned (wrapped) when a required resource property
// is absent or empty.
var ErrMissingProperty = errors.New("missing required property")

// Resource property names.
const (
	PropGatewayName         = "GatewayName"
	PropLambdaArn           = "LambdaArn"
	PropApiSpec             = "ApiSpec"
	PropGatewayRoleArn      = "GatewayRoleArn"
	PropCognitoClientID     = "CognitoClientId"
	PropCognitoDiscoveryURL = "CognitoDiscoveryUrl"
	PropRegion              = "Region"
	PropSsmPrefix           = "SsmPrefix"
)

var requiredProps = []string{
	PropGatewayName,
	PropLambdaArn,
	PropApiSpec,
	PropGatewayRoleArn,
	PropCognitoClientID,
	PropCognitoDiscoveryURL,
	PropSsmPrefix,
}

// ParseRequest decodes custom resource properties into a GatewayRequest.
// Region falls back to defaultRegion. Every missing required property is
// named in the error.
func ParseRequest(props map[string]interface{}, defaultRegion string) (types.GatewayRequest, error) {
	var missing []string
	for _, key := range requiredProps {
		if isEmpty(props[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return types.GatewayRequest{}, fmt.Errorf("%w: %s", ErrMissingProperty, strings.Join(missing, ", "))
	}

	var (
		req  types.GatewayRequest
		errs []error
	)
	str := func(key string) string {
		s, err := stringProp(props, key)
		if err != nil {
			errs = append(errs, err)
		}
		return s
	}

	req.Name = str(PropGatewayName)
	req.ExecutorARN = str(PropLambdaArn)
	req.RoleARN = str(PropGatewayRoleArn)
	req.Auth.DiscoveryURL = str(PropCognitoDiscoveryURL)
	req.ParameterPrefix = str(PropSsmPrefix)
	req.Region = defaultRegion
	if !isEmpty(props[PropRegion]) {
		req.Region = str(PropRegion)
	}

	spec, err := specProp(props[PropApiSpec])
	if err != nil {
		errs = append(errs, err)
	}
	req.ToolSpec = spec

	clients, err := listProp(props, PropCognitoClientID)
	if err != nil {
		errs = append(errs, err)
	}
	req.Auth.AllowedClientIDs = clients

	if err := errors.Join(errs...); err != nil {
		return types.GatewayRequest{}, err
	}
	if req.Region == "" {
		return types.GatewayRequest{}, fmt.Errorf("%w: %s", ErrMissingProperty, PropRegion)
	}
	return req, nil
}

// PriorName returns GatewayName from the previous properties of an update,
// or "" when absent.
func PriorName(old map[string]interface{}) string {
	s, _ := old[PropGatewayName].(string)
	return s
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	}
	return false
}

func stringProp(props map[string]interface{}, key string) (string, error) {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", fmt.Errorf("property %s: expected string, got %T", key, v)
	}
}

// specProp accepts the tool schema as a JSON string or as an already
// decoded document.
func specProp(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("property %s: %w", PropApiSpec, err)
	}
	return string(data), nil
}

// listProp accepts a list of strings or a single comma-separated string.
func listProp(props map[string]interface{}, key string) ([]string, error) {
	var raw []string
	switch v := props[key].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("property %s[%d]: expected string, got %T", key, i, item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("property %s: expected string or list, got %T", key, v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	return out, nil
}
