// @title Assessment Response API
// @version 1.0
// @description Respondent workspaces for multi-perspective assessments: draft answers, debounced slider commits and bulk save.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"os"

	"assessment_backend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
