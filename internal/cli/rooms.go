package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"construction_estimator/internal/adapter/http/dto/response"
	"construction_estimator/internal/adapter/http/routes"
	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/usecase"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// roomsFile is the offline input format. YAML is a superset of JSON, so either works.
type roomsFile struct {
	ProjectName string `yaml:"project_name"`
	Rooms       []struct {
		Name     string  `yaml:"name"`
		AreaSqft float64 `yaml:"area_sqft"`
		Finish   string  `yaml:"finish"`
	} `yaml:"rooms"`
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Price a room list with the configured rate table",
	Example: `  estimator rooms --file rooms.yaml
  estimator rooms --file rooms.json --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		save, _ := cmd.Flags().GetBool("save")

		projectName, rooms, err := readRoomsFile(path)
		if err != nil {
			return err
		}
		if name, _ := cmd.Flags().GetString("project"); name != "" {
			projectName = name
		}

		var e entities.Estimate
		if save {
			uc, closeStore, err := routes.BuildEstimateUseCase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if e, err = uc.StartFromRooms(cmd.Context(), projectName, rooms); err != nil {
				return err
			}
		} else {
			if e, err = priceRooms(projectName, rooms); err != nil {
				return err
			}
		}
		return printJSON(cmd, response.FromEstimate(e))
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.Flags().StringP("file", "f", "", "YAML or JSON rooms file")
	roomsCmd.Flags().String("project", "", "project name (overrides the file)")
	roomsCmd.Flags().Bool("save", false, "persist the estimate in the configured store")
	_ = roomsCmd.MarkFlagRequired("file")
}

func readRoomsFile(path string) (string, []entities.RoomSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var f roomsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", path, err)
	}
	rooms := make([]entities.RoomSpec, 0, len(f.Rooms))
	for _, r := range f.Rooms {
		rooms = append(rooms, entities.RoomSpec{
			Name:     r.Name,
			AreaSqft: r.AreaSqft,
			Finish:   strings.ToLower(strings.TrimSpace(r.Finish)),
		})
	}
	return f.ProjectName, rooms, nil
}

// priceRooms builds an unsaved final estimate through the same use case the API
// runs, with no store behind it.
func priceRooms(projectName string, rooms []entities.RoomSpec) (entities.Estimate, error) {
	table, err := cfg.RateTable()
	if err != nil {
		return entities.Estimate{}, err
	}
	uc := usecase.NewEstimateUseCase(nil, nil, nil, table, usecase.EstimateOptions{
		Currency:       cfg.Estimate.Currency,
		FallbackAmount: cfg.Estimate.FallbackAmount,
	})
	return uc.PriceRooms(projectName, rooms)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
