package cli

import (
	"fmt"

	"github.com/diillson/fintrack-dashboard-go/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
         /$$$$$$$$ /$$            /$$$$$$$$                           /$$      
        | $$_____/|__/           |__  $$__/                          | $$      
        | $$       /$$ /$$$$$$$     | $$  /$$$$$$  /$$$$$$   /$$$$$$$| $$   /$$
        | $$$$$   | $$| $$__  $$    | $$ /$$__  $$|____  $$ /$$_____/| $$  /$$/
        | $$__/   | $$| $$  \ $$    | $$| $$  \__/ /$$$$$$$| $$      | $$$$$$/ 
        | $$      | $$| $$  | $$    | $$| $$      /$$__  $$| $$      | $$_  $$ 
        | $$      | $$| $$  | $$    | $$| $$     |  $$$$$$$|  $$$$$$$| $$ \  $$
        |__/      |__/|__/  |__/    |__/|__/      \_______/ \_______/|__/  \__/
        `
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(green(banner))

	if versionStr == "" {
		versionStr = version.FormatVersion()
	}
	fmt.Println(blue(fmt.Sprintf("FinTrack Dashboard CLI (v%s)", versionStr)))
}
