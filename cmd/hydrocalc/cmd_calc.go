package main

import (
	"encoding/json"

	"github.com/KlimSani4/hydrocalc/internal/calculator"

	"github.com/spf13/cobra"
)

var calcReq calculator.Request

var calcCmd = &cobra.Command{
	Use:     "calc",
	Short:   "Compute the water requirement locally and print it as JSON",
	Example: `  hydrocalc calc --junior 10 --middle 10 --senior 10 --staff 5 --season warm --activity trip`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := calculator.Calculate(calcReq)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	f := calcCmd.Flags()
	f.IntVar(&calcReq.JuniorCount, "junior", 0, "children aged 7-10")
	f.IntVar(&calcReq.MiddleCount, "middle", 0, "children aged 11-14")
	f.IntVar(&calcReq.SeniorCount, "senior", 0, "children aged 15-17")
	f.IntVar(&calcReq.StaffCount, "staff", 0, "adults")
	f.StringVar((*string)(&calcReq.Season), "season", string(calculator.Cold), "cold or warm")
	f.StringVar((*string)(&calcReq.Activity), "activity", string(calculator.Normal), "normal, sport or trip")
}
