package commands

import (
	"encoding/json"
	"fmt"

	"github.com/allisson/walletguard/internal/config"
	"github.com/allisson/walletguard/permissions"
)

// RunShowConfig prints the enforcement configuration the environment
// currently selects, in text or JSON format.
func RunShowConfig(cfg *config.Config, format string, io IOTuple) error {
	permCfg := cfg.PermissionConfig()

	if format == "json" {
		return outputConfigJSON(cfg, permCfg, io)
	}
	outputConfigText(cfg, permCfg, io)
	return nil
}

func outputConfigJSON(cfg *config.Config, permCfg permissions.Config, io IOTuple) error {
	doc := map[string]any{
		"adminOriginator": cfg.AdminOriginator,
		"cacheTTL":        cfg.CacheTTL.String(),
		"metrics": map[string]any{
			"enabled":   cfg.MetricsEnabled,
			"namespace": cfg.MetricsNamespace,
			"port":      cfg.MetricsPort,
		},
		"enforcement": permCfg,
	}
	enc := json.NewEncoder(io.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func outputConfigText(cfg *config.Config, permCfg permissions.Config, io IOTuple) {
	fmt.Fprintf(io.Writer, "Admin originator:       %s\n", cfg.AdminOriginator)
	fmt.Fprintf(io.Writer, "Cache TTL:              %s\n", cfg.CacheTTL)
	fmt.Fprintf(io.Writer, "Metrics:                enabled=%t namespace=%s port=%d\n",
		cfg.MetricsEnabled, cfg.MetricsNamespace, cfg.MetricsPort)
	fmt.Fprintf(io.Writer, "Encrypt metadata:       %t\n", permCfg.EncryptWalletMetadata)
	fmt.Fprintf(io.Writer, "Privileged separated:   %t\n", permCfg.DifferentiatePrivilegedOperations)
	fmt.Fprintf(io.Writer, "Protocol checks:        %t\n", permCfg.SeekProtocolPermissionsForSigning)
	fmt.Fprintf(io.Writer, "Basket checks:          %t\n", permCfg.SeekBasketInsertionPermissions)
	fmt.Fprintf(io.Writer, "Certificate checks:     %t\n", permCfg.SeekCertificateDisclosurePermissions)
	fmt.Fprintf(io.Writer, "Spending checks:        %t\n", permCfg.SeekSpendingPermissions)
	fmt.Fprintf(io.Writer, "Label checks:           %t\n", permCfg.SeekPermissionWhenApplyingActionLabels)
	fmt.Fprintf(io.Writer, "Grouped flow:           %t\n", permCfg.SeekGroupedPermission)
}
