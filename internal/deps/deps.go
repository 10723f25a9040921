package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// Tool is an external program the app shells out to.
type Tool struct {
	Name        string
	VersionArg  string
	Purpose     string
	InstallHint string
}

var (
	PwRecord   = Tool{Name: "pw-record", VersionArg: "--version", Purpose: "microphone capture", InstallHint: "install pipewire"}
	WhisperCli = Tool{Name: "whisper-cli", VersionArg: "--version", Purpose: "local transcription", InstallHint: "install whisper.cpp"}
	EspeakNg   = Tool{Name: "espeak-ng", VersionArg: "--version", Purpose: "speech playback", InstallHint: "install espeak-ng"}
	WlCopy     = Tool{Name: "wl-copy", VersionArg: "--version", Purpose: "clipboard copy", InstallHint: "install wl-clipboard"}
)

// Check looks the tool up in PATH and reads the first line of its version
// output, when it has one.
func Check(tool Tool) Status {
	path, err := exec.LookPath(tool.Name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	if tool.VersionArg == "" {
		return status
	}
	output, err := exec.Command(path, tool.VersionArg).Output()
	if err == nil {
		first, _, _ := strings.Cut(string(output), "\n")
		status.Version = strings.TrimSpace(first)
	}

	return status
}

// Required lists the tools a configuration needs.
func Required(captureProvider, transcriber, playbackBackend string) []Tool {
	var tools []Tool
	if captureProvider == "pipewire" {
		tools = append(tools, PwRecord)
		if transcriber == "whisper-cpp" {
			tools = append(tools, WhisperCli)
		}
	}
	if playbackBackend == "espeak-ng" {
		tools = append(tools, EspeakNg)
	}
	return append(tools, WlCopy)
}
