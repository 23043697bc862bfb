package readme

import (
	"fmt"
	"strings"

	"github.com/karthikbj/pluginops/internal/plugininfo"
)

const (
	fallbackDescriptionTodoConstant  = "TODO: Describe what this plugin does."
	fallbackUsageTodoConstant        = "TODO: Add usage examples."
	fallbackLicenseTodoConstant      = "TODO: Add license information."
	fallbackNoVariablesNoteConstant  = "This plugin requires no environment variables."
	fallbackVariableDescriptionTodo  = "TODO: document"
	fallbackInstallCommandTemplate   = "bun add %s"
	fallbackTestsPresentNoteConstant = "Run the package test script to verify the plugin."
	fallbackTestsMissingTodoConstant = "TODO: Add tests."
	installationSectionHeadingConst  = "## Installation"
	configurationSectionHeadingConst = "## Configuration"
	usageSectionHeadingConstant      = "## Usage"
	licenseSectionHeadingConstant    = "## License"
	testingSectionHeadingConstant    = "## Testing"
	actionsSectionHeadingConstant    = "## Actions"
	servicesSectionHeadingConstant   = "## Services"
	providersSectionHeadingConstant  = "## Providers"
)

// RenderFallback produces the deterministic README used when the completion
// model is unavailable. Every extracted fact is substituted into the
// template; gaps become TODO markers so maintainers can finish the document
// by hand.
func RenderFallback(pluginInformation plugininfo.PluginInfo) string {
	var documentBuilder strings.Builder

	fmt.Fprintf(&documentBuilder, "# %s\n\n", pluginInformation.PackageName)
	description := strings.TrimSpace(pluginInformation.Description)
	if len(description) == 0 {
		description = fallbackDescriptionTodoConstant
	}
	fmt.Fprintf(&documentBuilder, "%s\n\n", description)

	fmt.Fprintf(&documentBuilder, "%s\n\n```bash\n%s\n```\n\n", installationSectionHeadingConst, fmt.Sprintf(fallbackInstallCommandTemplate, pluginInformation.PackageName))

	fmt.Fprintf(&documentBuilder, "%s\n\n", configurationSectionHeadingConst)
	if len(pluginInformation.EnvironmentVariables) == 0 {
		fmt.Fprintf(&documentBuilder, "%s\n\n", fallbackNoVariablesNoteConstant)
	} else {
		fmt.Fprintf(&documentBuilder, "| Variable | Description |\n| --- | --- |\n")
		for _, variableName := range pluginInformation.EnvironmentVariables {
			fmt.Fprintf(&documentBuilder, "| `%s` | %s |\n", variableName, fallbackVariableDescriptionTodo)
		}
		fmt.Fprintf(&documentBuilder, "\n")
	}

	fmt.Fprintf(&documentBuilder, "%s\n\n%s\n\n", usageSectionHeadingConstant, fallbackUsageTodoConstant)

	renderFallbackComponents(&documentBuilder, actionsSectionHeadingConstant, pluginInformation.Actions)
	renderFallbackComponents(&documentBuilder, servicesSectionHeadingConstant, pluginInformation.Services)
	renderFallbackComponents(&documentBuilder, providersSectionHeadingConstant, pluginInformation.Providers)

	fmt.Fprintf(&documentBuilder, "%s\n\n", testingSectionHeadingConstant)
	if pluginInformation.HasTests {
		fmt.Fprintf(&documentBuilder, "%s\n\n", fallbackTestsPresentNoteConstant)
	} else {
		fmt.Fprintf(&documentBuilder, "%s\n\n", fallbackTestsMissingTodoConstant)
	}

	fmt.Fprintf(&documentBuilder, "%s\n\n%s\n", licenseSectionHeadingConstant, fallbackLicenseTodoConstant)
	return documentBuilder.String()
}

func renderFallbackComponents(documentBuilder *strings.Builder, sectionHeading string, components []plugininfo.ComponentInfo) {
	if len(components) == 0 {
		return
	}
	fmt.Fprintf(documentBuilder, "%s\n\n", sectionHeading)
	for _, component := range components {
		fmt.Fprintf(documentBuilder, "- `%s`", component.Name)
		if len(component.Methods) > 0 {
			fmt.Fprintf(documentBuilder, " (methods: %s)", formatMethodList(component.Methods))
		}
		fmt.Fprintf(documentBuilder, "\n")
	}
	fmt.Fprintf(documentBuilder, "\n")
}

func formatMethodList(methodNames []string) string {
	quotedNames := make([]string, 0, len(methodNames))
	for _, methodName := range methodNames {
		quotedNames = append(quotedNames, fmt.Sprintf("`%s`", methodName))
	}
	return strings.Join(quotedNames, ", ")
}
