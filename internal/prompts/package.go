// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package prompts

import "github.com/charmbracelet/huh"

// RunPackageForm prompts for the missing inputs of the package command.
func RunPackageForm(input, naming, secret *string) error {
	askInput, askNaming, askSecret := *input == "", *naming == "", *secret == ""
	if !askInput && !askNaming && !askSecret {
		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("File to package").
				Prompt(": ").
				Inline(true).
				Value(input).
				Validate(requiredValidator("file")),
		).WithHideFunc(func() bool { return !askInput }),
		huh.NewGroup(
			huh.NewInput().
				Title("Naming file").
				Prompt(": ").
				Inline(true).
				Placeholder("naming.json").
				Value(naming).
				Validate(requiredValidator("naming file")),
		).WithHideFunc(func() bool { return !askNaming }),
		huh.NewGroup(
			huh.NewInput().
				Title("Secret name").
				Prompt(": ").
				Inline(true).
				Placeholder("read from XMLGEN_SECRET_<NAME>").
				Value(secret).
				Validate(requiredValidator("secret name")),
		).WithHideFunc(func() bool { return !askSecret }),
	).WithTheme(Theme()).Run()
}
