package commands

import (
	"context"
	"encoding/json"
	"fmt"

	walletguard "github.com/allisson/walletguard"
	"github.com/allisson/walletguard/permissions"
)

// RunFetchManifest downloads an originator's manifest and prints the grouped
// permissions it would request during authentication. Useful for reviewing
// what an application asks for before granting anything.
func RunFetchManifest(ctx context.Context, fetcher walletguard.ManifestFetcher, originator, format string, io IOTuple) error {
	if originator == "" {
		return fmt.Errorf("originator is required")
	}

	grouped, err := fetcher.Fetch(ctx, originator)
	if err != nil {
		return fmt.Errorf("failed to fetch manifest for %s: %w", originator, err)
	}
	if grouped == nil {
		fmt.Fprintf(io.Writer, "%s publishes no grouped permissions\n", originator)
		return nil
	}

	if format == "json" {
		enc := json.NewEncoder(io.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(grouped)
	}
	outputManifestText(originator, grouped, io)
	return nil
}

func outputManifestText(originator string, grouped *permissions.GroupedPermissions, io IOTuple) {
	fmt.Fprintf(io.Writer, "Grouped permissions requested by %s:\n", originator)
	if grouped.Description != "" {
		fmt.Fprintf(io.Writer, "  %s\n", grouped.Description)
	}
	for _, p := range grouped.Protocols {
		fmt.Fprintf(io.Writer, "  protocol:    level %d, %q, counterparty %s", p.ProtocolID.SecurityLevel, p.ProtocolID.Name, p.Counterparty)
		if p.Description != "" {
			fmt.Fprintf(io.Writer, " (%s)", p.Description)
		}
		fmt.Fprintln(io.Writer)
	}
	for _, b := range grouped.Baskets {
		fmt.Fprintf(io.Writer, "  basket:      %s", b.Basket)
		if b.Description != "" {
			fmt.Fprintf(io.Writer, " (%s)", b.Description)
		}
		fmt.Fprintln(io.Writer)
	}
	for _, c := range grouped.Certificates {
		fmt.Fprintf(io.Writer, "  certificate: %s fields %v for verifier %s", c.Type, c.Fields, c.Verifier)
		if c.Description != "" {
			fmt.Fprintf(io.Writer, " (%s)", c.Description)
		}
		fmt.Fprintln(io.Writer)
	}
	if grouped.Spending != nil {
		fmt.Fprintf(io.Writer, "  spending:    %d satoshis per month", grouped.Spending.AuthorizedAmount)
		if grouped.Spending.Description != "" {
			fmt.Fprintf(io.Writer, " (%s)", grouped.Spending.Description)
		}
		fmt.Fprintln(io.Writer)
	}
}
