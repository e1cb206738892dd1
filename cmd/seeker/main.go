package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/infrastructure/peer"
	"github.com/lost-server/internal/pkg/utils"
)

// seeker drives the resolver client against a LoST server: it follows
// redirects itself, so it works against servers running in redirect mode.
func main() {
	var (
		serverURL string
		recursive bool
		reference bool
		maxHops   int
		timeout   time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "seeker",
		Short: "Query a LoST server for service mappings",
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "http://127.0.0.1:5000", "LoST server URL")
	rootCmd.PersistentFlags().BoolVar(&recursive, "recursive", false, "ask the server to resolve recursively")
	rootCmd.PersistentFlags().BoolVar(&reference, "reference", false, "request a boundary reference instead of the inline boundary")
	rootCmd.PersistentFlags().IntVar(&maxHops, "max-hops", peer.DefaultMaxHops, "redirect hops to follow")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall query deadline")

	newClient := func() (*peer.Client, context.Context, context.CancelFunc) {
		client := peer.NewClient(timeout, zap.NewNop())
		client.MaxHops = maxHops
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		return client, ctx, cancel
	}

	findServiceCmd := &cobra.Command{
		Use:   "find-service <service> <lon> <lat>",
		Short: "Resolve the service provider for a point",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q", args[1])
			}
			lat, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q", args[2])
			}
			if !utils.ValidateCoordinates(lat, lon) {
				return fmt.Errorf("coordinates %v %v out of range", lon, lat)
			}

			client, ctx, cancel := newClient()
			defer cancel()

			point := &geometry.Point{Pos: geometry.Position{Lat: lat, Lon: lon}}
			uris, lerr := client.FindService(ctx, serverURL, args[0], point, recursive, reference)
			if lerr != nil {
				return lerr
			}
			printURIs(uris)
			return nil
		},
	}

	findIntersectCmd := &cobra.Command{
		Use:   "find-intersect <service> <geojson-file>",
		Short: "List service providers whose boundary intersects a region",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			region, lerr := geometry.ParseGeoJSON(data)
			if lerr != nil {
				return lerr
			}

			client, ctx, cancel := newClient()
			defer cancel()

			uris, lerr := client.FindIntersect(ctx, serverURL, args[0], region, recursive, reference)
			if lerr != nil {
				return lerr
			}
			printURIs(uris)
			return nil
		},
	}

	listServicesCmd := &cobra.Command{
		Use:   "list-services",
		Short: "List the service URNs the server has mappings for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel := newClient()
			defer cancel()

			services, lerr := client.ListServices(ctx, serverURL)
			if lerr != nil {
				return lerr
			}
			printURIs(services)
			return nil
		},
	}

	getBoundaryCmd := &cobra.Command{
		Use:   "get-boundary <key>",
		Short: "Dereference a boundary key and print the GML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel := newClient()
			defer cancel()

			gml, lerr := client.GetServiceBoundary(ctx, serverURL, args[0])
			if lerr != nil {
				return lerr
			}
			fmt.Println(gml)
			return nil
		},
	}

	listByLocationCmd := &cobra.Command{
		Use:   "list-services-by-location <geojson-file>",
		Short: "List the service URNs available at a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			region, lerr := geometry.ParseGeoJSON(data)
			if lerr != nil {
				return lerr
			}

			client, ctx, cancel := newClient()
			defer cancel()

			services, lerr := client.ListServicesByLocation(ctx, serverURL, region)
			if lerr != nil {
				return lerr
			}
			printURIs(services)
			return nil
		},
	}

	rootCmd.AddCommand(findServiceCmd, findIntersectCmd, listServicesCmd, getBoundaryCmd, listByLocationCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printURIs(uris []string) {
	for _, uri := range uris {
		fmt.Println(uri)
	}
}
