package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/Raunak7888/hermes-tui/internal/app"
	"github.com/Raunak7888/hermes-tui/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "backend url (overrides config server_url)")
	tokenFlag := flag.String("set-token", "", "store a bearer credential for the profile and exit")
	clearFlag := flag.Bool("clear-token", false, "remove the stored credential for the profile and exit")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *tokenFlag != "" {
		if err := profile.SaveCredential(profile.Dir(profileName), *tokenFlag); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("credential stored for profile %s\n", profileName)
		return
	}
	if *clearFlag {
		if err := profile.ClearCredential(profile.Dir(profileName)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("credential cleared for profile %s\n", profileName)
		return
	}

	fx.New(
		app.Module(app.Params{ProfileName: profileName, ServerURL: *serverFlag}),
		fx.NopLogger,
	).Run()
}
