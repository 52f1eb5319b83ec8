package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/flemzord/github-compliance-sub000/internal/config"
	"github.com/google/go-github/v81/github"
)

// SecurityScanningCheck verifies vulnerability alerts, secret scanning, and
// secret scanning push protection against the declared policy.
type SecurityScanningCheck struct{}

func (c *SecurityScanningCheck) Name() string { return "security-scanning" }

func (c *SecurityScanningCheck) ShouldRun(_ context.Context, cc *Context) bool {
	return setting[config.SecurityScanningSettings](cc, config.KeySecurityScanning) != nil
}

func (c *SecurityScanningCheck) Check(ctx context.Context, cc *Context) (Result, error) {
	res, _, err := c.evaluate(ctx, cc)
	return res, err
}

func (c *SecurityScanningCheck) Fix(ctx context.Context, cc *Context) (Result, error) {
	return runFix(ctx, cc, c.evaluate)
}

func (c *SecurityScanningCheck) evaluate(ctx context.Context, cc *Context) (Result, []Action, error) {
	want := setting[config.SecurityScanningSettings](cc, config.KeySecurityScanning)
	if want == nil {
		return Compliant("No security scanning policy declared"), nil, nil
	}

	owner, name := cc.Owner(), cc.RepoName()

	var drift []string
	var actions []Action

	if want.VulnerabilityAlerts != nil {
		enabled, err := cc.Client.GetVulnerabilityAlerts(ctx, owner, name)
		if err != nil {
			return Result{}, nil, fmt.Errorf("get vulnerability alerts: %w", err)
		}
		if enabled != *want.VulnerabilityAlerts {
			drift = append(drift, fmt.Sprintf("vulnerability alerts are %s, policy requires %s", enabledWord(enabled), enabledWord(*want.VulnerabilityAlerts)))
			desired := *want.VulnerabilityAlerts
			actions = append(actions, Action{
				Description: fmt.Sprintf("%s vulnerability alerts", enableWord(desired)),
				Apply: func(ctx context.Context) error {
					return cc.Client.SetVulnerabilityAlerts(ctx, owner, name, desired)
				},
			})
		}
	}

	if want.SecretScanning != nil || want.SecretScanningPushProtection != nil {
		sa, err := cc.Client.GetSecuritySettings(ctx, owner, name)
		if err != nil {
			return Result{}, nil, fmt.Errorf("get security settings: %w", err)
		}

		if want.SecretScanning != nil {
			enabled := securityFeatureEnabled(sa, func(sa *github.SecurityAndAnalysis) string {
				return sa.GetSecretScanning().GetStatus()
			})
			if enabled != *want.SecretScanning {
				drift = append(drift, fmt.Sprintf("secret scanning is %s, policy requires %s", enabledWord(enabled), enabledWord(*want.SecretScanning)))
				desired := *want.SecretScanning
				actions = append(actions, Action{
					Description: fmt.Sprintf("%s secret scanning", enableWord(desired)),
					Apply: func(ctx context.Context) error {
						return cc.Client.SetSecretScanning(ctx, owner, name, desired)
					},
				})
			}
		}

		if want.SecretScanningPushProtection != nil {
			enabled := securityFeatureEnabled(sa, func(sa *github.SecurityAndAnalysis) string {
				return sa.GetSecretScanningPushProtection().GetStatus()
			})
			if enabled != *want.SecretScanningPushProtection {
				drift = append(drift, fmt.Sprintf("secret scanning push protection is %s, policy requires %s", enabledWord(enabled), enabledWord(*want.SecretScanningPushProtection)))
				desired := *want.SecretScanningPushProtection
				actions = append(actions, Action{
					Description: fmt.Sprintf("%s secret scanning push protection", enableWord(desired)),
					Apply: func(ctx context.Context) error {
						return cc.Client.SetSecretScanningPushProtection(ctx, owner, name, desired)
					},
				})
			}
		}
	}

	if len(drift) == 0 {
		return Compliant("Security scanning settings match policy"), nil, nil
	}

	res := NonCompliant("Security scanning diverges from policy: "+strings.Join(drift, "; "), actionDescriptions(actions))
	return res, actions, nil
}

// securityFeatureEnabled treats an absent security_and_analysis block as
// "disabled": the forge omits it when the feature set is unavailable.
func securityFeatureEnabled(sa *github.SecurityAndAnalysis, status func(*github.SecurityAndAnalysis) string) bool {
	if sa == nil {
		return false
	}
	return status(sa) == "enabled"
}

func enableWord(v bool) string {
	if v {
		return "enable"
	}
	return "disable"
}
