package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gavinwade12/obdscan/protocols/obd"
	"github.com/gavinwade12/obdscan/units"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type pidReport struct {
	PID  string     `json:"pid" yaml:"pid"`
	Name string     `json:"name,omitempty" yaml:"name,omitempty"`
	Unit units.Unit `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type ecuReport struct {
	ECU  string      `json:"ecu" yaml:"ecu"`
	PIDs []pidReport `json:"pids" yaml:"pids"`
}

func buildReport(result obd.Result) []ecuReport {
	report := make([]ecuReport, 0, len(result))
	for _, id := range result.ECUs() {
		r := ecuReport{ECU: id.String(), PIDs: make([]pidReport, 0, len(result[id]))}
		for _, p := range result[id] {
			param := obd.Parameters[p]
			r.PIDs = append(r.PIDs, pidReport{PID: p.String(), Name: param.Name, Unit: param.Unit})
		}
		report = append(report, r)
	}
	return report
}

type resultWriter func(w io.Writer, result obd.Result) error

func reportWriter(format string) (resultWriter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText, nil
	case "json":
		return writeJSON, nil
	case "yaml", "yml":
		return writeYAML, nil
	}
	return nil, errors.Errorf("unknown output format '%s'", format)
}

var (
	ecuColor     = color.New(color.FgCyan, color.Bold)
	pidColor     = color.New(color.FgYellow)
	unknownColor = color.New(color.Faint)
)

func writeText(w io.Writer, result obd.Result) error {
	if len(result) == 0 {
		_, err := fmt.Fprintln(w, "no ECUs responded")
		return err
	}

	for _, r := range buildReport(result) {
		ecuColor.Fprintf(w, "ECU %s", r.ECU)
		fmt.Fprintf(w, " (%d PIDs)\n", len(r.PIDs))
		for _, p := range r.PIDs {
			pidColor.Fprintf(w, "  %s", p.PID)
			switch {
			case p.Name == "":
				unknownColor.Fprint(w, "  unknown")
			case p.Unit != "":
				fmt.Fprintf(w, "  %s [%s]", p.Name, p.Unit)
			default:
				fmt.Fprintf(w, "  %s", p.Name)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func writeJSON(w io.Writer, result obd.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(buildReport(result)), "encoding JSON")
}

func writeYAML(w io.Writer, result obd.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(buildReport(result)); err != nil {
		return errors.Wrap(err, "encoding YAML")
	}
	return errors.Wrap(enc.Close(), "encoding YAML")
}
