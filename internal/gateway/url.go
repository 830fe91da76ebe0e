package gateway

import "strings"

// ResolveURL returns the API-reported gateway URL, or renders template with
// the gateway id and region when the API omitted it.
func ResolveURL(template, reported, gatewayID, region string) string {
	if reported != "" {
		return reported
	}
	return strings.NewReplacer("{id}", gatewayID, "{region}", region).Replace(template)
}
