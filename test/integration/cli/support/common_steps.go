package support

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// iRunCommand executes a command and stores the result.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	output, err := cmd.CombinedOutput()
	testCtx.LastOutput = string(output)
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// jsonDocument decodes the first JSON object in the output, skipping log
// lines around it.
func (testCtx *TestContext) jsonDocument() (map[string]any, error) {
	output := strings.TrimSpace(testCtx.LastOutput)
	start := strings.Index(output, "{\n")
	if start < 0 {
		start = strings.Index(output, "{")
	}
	if start < 0 {
		return nil, fmt.Errorf("no JSON found in output: %s", output)
	}
	var doc map[string]any
	if err := json.NewDecoder(strings.NewReader(output[start:])).Decode(&doc); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, output)
	}
	return doc, nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.jsonDocument()
	return err
}

// theJSONShouldReportImages checks the length of the "images" array.
func (testCtx *TestContext) theJSONShouldReportImages(n int) error {
	doc, err := testCtx.jsonDocument()
	if err != nil {
		return err
	}
	images, ok := doc["images"].([]any)
	if !ok {
		return fmt.Errorf("JSON has no images array: %v", doc)
	}
	if len(images) != n {
		return fmt.Errorf("expected %d images, got %d", n, len(images))
	}
	return nil
}

// theOutputShouldBeValidCSVWithRows parses the output and checks its header.
func (testCtx *TestContext) theOutputShouldBeValidCSVWithRows(n int) error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastOutput)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records) == 0 || records[0][0] != "file" {
		return fmt.Errorf("missing CSV header in %q", testCtx.LastOutput)
	}
	if got := len(records) - 1; got != n {
		return fmt.Errorf("expected %d CSV rows, got %d", n, got)
	}
	return nil
}

// theFileShouldExist checks a file below the scratch directory.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := filepath.Join(testCtx.TempDir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	return nil
}

// theFileShouldContain checks the content of a file below the scratch directory.
func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(filepath.Join(testCtx.TempDir, name))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q:\n%s", name, text, data)
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// aConfigFileWith writes placa.yaml into the scratch directory.
func (testCtx *TestContext) aConfigFileWith(content *godog.DocString) error {
	return os.WriteFile(filepath.Join(testCtx.TempDir, "placa.yaml"),
		[]byte(testCtx.substituteCommandVariables(content.Content)), 0o600)
}

// RegisterCommonSteps registers the command execution steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should report (\d+) images?$`, testCtx.theJSONShouldReportImages)
	sc.Step(`^the output should be CSV with (\d+) rows?$`, testCtx.theOutputShouldBeValidCSVWithRows)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
	sc.Step(`^a config file with:$`, testCtx.aConfigFileWith)
}
