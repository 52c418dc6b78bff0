// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/clock"
	"github.com/novelmind-foundation/nmbuild/lib/manifest"
	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
	"github.com/novelmind-foundation/nmbuild/lib/respack"
	"github.com/novelmind-foundation/nmbuild/lib/testutil"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeProject lays out a minimal buildable project: one balanced
// script and one image asset.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "project.json"), []byte(`{"name": "Test Game"}`))
	writeFile(t, filepath.Join(dir, "scripts", "intro.nms"),
		[]byte("scene intro {\n  say \"hello\"\n}\n"))
	writeFile(t, filepath.Join(dir, "assets", "images", "bg.png"),
		[]byte("not really a png"))
	return dir
}

// drain collects the full event stream. It returns once the build
// closes the channel, so Wait never blocks afterwards.
func drain(t *testing.T, b *Build) []Event {
	t.Helper()
	var events []Event
	for event := range b.Events() {
		events = append(events, event)
	}
	return events
}

func stageStarts(events []Event) []string {
	var names []string
	for _, event := range events {
		if event.Kind == EventStageStarted {
			names = append(names, event.Stage)
		}
	}
	return names
}

func hasLog(events []Event, substr string) bool {
	for _, event := range events {
		if event.Kind == EventLog && strings.Contains(event.Message, substr) {
			return true
		}
	}
	return false
}

func containsMatch(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestBuildProducesBundle(t *testing.T) {
	project := writeProject(t)
	output := filepath.Join(t.TempDir(), "out")

	clk := clock.Fake(time.Unix(1700000000, 0))
	sys := NewSystem(WithClock(clk))
	cfg := Config{
		ProjectDir:     project,
		OutputDir:      output,
		ExecutableName: "TestGame",
		Platform:       PlatformLinux,
		PackAssets:     true,
		BuildNumber:    7,
	}
	b, err := sys.Start(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	events := drain(t, b)
	result := b.Wait()

	if !result.Success || result.Cancelled || result.ErrorMessage != "" {
		t.Fatalf("build did not succeed: %+v", result)
	}
	if result.ScriptsCompiled != 1 || result.AssetsProcessed != 1 {
		t.Errorf("compiled %d scripts and processed %d assets, want 1 and 1",
			result.ScriptsCompiled, result.AssetsProcessed)
	}
	if result.OutputDir != output {
		t.Errorf("OutputDir = %q, want %q", result.OutputDir, output)
	}
	if result.TotalSize <= 0 {
		t.Errorf("TotalSize = %d, want > 0", result.TotalSize)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	// Stages ran in pipeline order and the stream ended with the result.
	wantStages := []string{"Preflight", "Compile", "Index", "Pack", "Bundle", "Verify"}
	if got := stageStarts(events); !slices.Equal(got, wantStages) {
		t.Errorf("stage order = %v, want %v", got, wantStages)
	}
	last := events[len(events)-1]
	if last.Kind != EventCompleted || last.Result == nil || !last.Result.Success {
		t.Errorf("last event = %+v, want successful EventCompleted", last)
	}

	// Received progress snapshots never regress.
	prev := 0.0
	for _, event := range events {
		if event.Kind != EventProgress {
			continue
		}
		if event.Overall < prev || event.Overall > 1 {
			t.Errorf("overall progress %g after %g", event.Overall, prev)
		}
		prev = event.Overall
	}

	// The base pack holds the asset plus the script staged under the
	// scripts/ virtual prefix.
	info, err := respack.Inspect(filepath.Join(output, "packs", "Base"+respack.Ext))
	if err != nil {
		t.Fatal(err)
	}
	if info.ResourceCount != 2 {
		t.Errorf("base pack has %d resources, want 2", info.ResourceCount)
	}
	if info.BuildNumber != 7 {
		t.Errorf("base pack build number = %d, want 7", info.BuildNumber)
	}
	if !info.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("base pack timestamp = %v, want the injected clock time", info.Timestamp)
	}
	var names []string
	for _, entry := range info.Entries {
		names = append(names, entry.Name)
	}
	if !slices.Equal(names, []string{"bg.png", "intro.nms"}) {
		t.Errorf("base pack entries = %v", names)
	}

	index, err := manifest.LoadPacksIndex(filepath.Join(output, "packs", manifest.PacksIndexFileName))
	if err != nil {
		t.Fatal(err)
	}
	if len(index.Packs) != 1 || index.Packs[0].ID != "base" || index.Packs[0].Priority != 0 {
		t.Errorf("unexpected pack index: %+v", index.Packs)
	}
	if index.DefaultLocale != "en" {
		t.Errorf("default locale = %q, want en", index.DefaultLocale)
	}

	res, err := manifest.LoadResourceManifest(filepath.Join(output, manifest.ResourceManifestFileName))
	if err != nil {
		t.Fatal(err)
	}
	if res.ResourceCount != 2 {
		t.Errorf("resource manifest lists %d resources, want 2", res.ResourceCount)
	}

	runtimeCfg, err := manifest.LoadRuntimeConfig(filepath.Join(output, "config", manifest.RuntimeConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if runtimeCfg.Game.Name != "TestGame" || runtimeCfg.Game.Version != "1.0.0" {
		t.Errorf("runtime config game = %+v", runtimeCfg.Game)
	}
	if runtimeCfg.Packs.IndexFile != manifest.PacksIndexFileName {
		t.Errorf("runtime config index file = %q", runtimeCfg.Packs.IndexFile)
	}

	launcher, err := os.ReadFile(filepath.Join(output, "TestGame_launcher.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(launcher), "TestGame") {
		t.Error("launcher does not name the game")
	}

	record, err := ReadRecord(output)
	if err != nil {
		t.Fatal(err)
	}
	if record.GameName != "TestGame" || record.Version != "1.0.0" ||
		record.Platform != "Linux" || record.BuildNumber != 7 {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.ScriptsCompiled != 1 || record.AssetsProcessed != 1 {
		t.Errorf("record counts = %d/%d, want 1/1",
			record.ScriptsCompiled, record.AssetsProcessed)
	}
	if len(record.Steps) != len(wantStages) {
		t.Fatalf("record has %d steps, want %d", len(record.Steps), len(wantStages))
	}
	for i, step := range record.Steps {
		if step.Name != wantStages[i] || !step.Success {
			t.Errorf("record step %d = %+v", i, step)
		}
	}

	logData, err := os.ReadFile(filepath.Join(output, "logs", LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logData), "Starting: Preflight") {
		t.Error("build log is missing the first stage line")
	}

	if _, err := os.Stat(stagingPath(output)); !os.IsNotExist(err) {
		t.Error("staging directory survived promotion")
	}

	progress := b.Progress()
	if !progress.IsComplete || !progress.WasSuccessful || progress.IsRunning {
		t.Errorf("final progress = %+v", progress)
	}
	if progress.Overall != 1 {
		t.Errorf("final overall = %g, want 1", progress.Overall)
	}
}

func TestBuildWarnsOnUnbalancedScript(t *testing.T) {
	project := writeProject(t)
	writeFile(t, filepath.Join(project, "scripts", "broken.nms"),
		[]byte("scene broken {\n  say \"missing close\"\n"))
	output := filepath.Join(t.TempDir(), "out")

	sys := NewSystem()
	b, err := sys.Start(context.Background(), Config{ProjectDir: project, OutputDir: output})
	if err != nil {
		t.Fatal(err)
	}
	drain(t, b)
	result := b.Wait()

	if !result.Success {
		t.Fatalf("structural warnings must not fail the build: %+v", result)
	}
	if !containsMatch(result.Warnings, "unbalanced braces") {
		t.Errorf("warnings = %v, want an unbalanced braces warning", result.Warnings)
	}
	if result.ScriptsCompiled != 2 {
		t.Errorf("ScriptsCompiled = %d, want 2", result.ScriptsCompiled)
	}
}

func TestFailedBuildLeavesOutputUntouched(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions do not apply to root")
	}

	project := writeProject(t)
	unreadable := filepath.Join(project, "scripts", "locked.nms")
	writeFile(t, unreadable, []byte("scene locked {}\n"))
	if err := os.Chmod(unreadable, 0o000); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(t.TempDir(), "out")
	stale := filepath.Join(output, "stale.txt")
	writeFile(t, stale, []byte("previous build output"))

	sys := NewSystem()
	b, err := sys.Start(context.Background(), Config{ProjectDir: project, OutputDir: output})
	if err != nil {
		t.Fatal(err)
	}
	drain(t, b)
	result := b.Wait()

	if result.Success || result.Cancelled {
		t.Fatalf("build should have failed: %+v", result)
	}
	if !strings.Contains(result.ErrorMessage, "failed to compile") {
		t.Errorf("ErrorMessage = %q", result.ErrorMessage)
	}

	data, err := os.ReadFile(stale)
	if err != nil || string(data) != "previous build output" {
		t.Errorf("pre-existing output modified by a failed build: %q, %v", data, err)
	}
	for _, name := range []string{"packs", "config", stagingDirName} {
		if _, err := os.Stat(filepath.Join(output, name)); !os.IsNotExist(err) {
			t.Errorf("failed build left %s in the output directory", name)
		}
	}
	if _, err := os.Stat(RecordPath(output)); !os.IsNotExist(err) {
		t.Error("failed build wrote a build record")
	}

	progress := b.Progress()
	if progress.WasSuccessful || !progress.IsComplete {
		t.Errorf("final progress = %+v", progress)
	}
	compile := progress.Steps[1]
	if !compile.Completed || compile.Success || compile.Error == "" {
		t.Errorf("compile step = %+v", compile)
	}
	for i, step := range progress.Steps[2:] {
		if step.Completed {
			t.Errorf("step %d ran after the compile failure: %+v", i+2, step)
		}
	}
}

func TestCancelledBeforeFirstStage(t *testing.T) {
	project := writeProject(t)
	output := filepath.Join(t.TempDir(), "out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sys := NewSystem()
	b, err := sys.Start(ctx, Config{ProjectDir: project, OutputDir: output})
	if err != nil {
		t.Fatal(err)
	}
	events := drain(t, b)
	result := b.Wait()

	if !result.Cancelled || result.Success {
		t.Fatalf("result = %+v, want cancelled", result)
	}
	if result.ErrorMessage != "build cancelled" {
		t.Errorf("ErrorMessage = %q", result.ErrorMessage)
	}
	if len(events) != 1 || events[0].Kind != EventCompleted {
		t.Errorf("expected only the completion event, got %d events", len(events))
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("cancelled build created the output directory")
	}

	progress := b.Progress()
	if !progress.WasCancelled || progress.CurrentStep != -1 {
		t.Errorf("final progress = %+v", progress)
	}
}

func TestCancelBetweenStages(t *testing.T) {
	project := writeProject(t)
	output := filepath.Join(t.TempDir(), "out")

	// An unbuffered event channel makes every log and stage event a
	// rendezvous, so the pipeline cannot outrun the test.
	sys := NewSystem(WithEventBuffer(0))
	b, err := sys.Start(context.Background(), Config{ProjectDir: project, OutputDir: output})
	if err != nil {
		t.Fatal(err)
	}

	first := testutil.RequireReceive(t, b.Events(), 5*time.Second, "waiting for the first pipeline event")
	if first.Kind != EventLog || !strings.Contains(first.Message, "Starting: Preflight") {
		t.Fatalf("first event = %+v", first)
	}
	b.Cancel()
	b.Cancel() // idempotent

	events := drain(t, b)
	result := b.Wait()

	if !result.Cancelled {
		t.Fatalf("result = %+v, want cancelled", result)
	}
	if hasLog(events, "Starting: Compile") {
		t.Error("compile stage started after cancellation")
	}
	if _, err := os.Stat(stagingPath(output)); !os.IsNotExist(err) {
		t.Error("cancelled build left the staging directory behind")
	}
}

func TestStartWhileRunning(t *testing.T) {
	project := writeProject(t)
	output := filepath.Join(t.TempDir(), "out")
	cfg := Config{ProjectDir: project, OutputDir: output}

	sys := NewSystem(WithEventBuffer(0))
	b, err := sys.Start(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	// The pipeline is parked on its first event send, so it cannot have
	// finished yet.
	if _, err := sys.Start(context.Background(), cfg); !errors.Is(err, ErrBuildInProgress) {
		t.Errorf("second Start error = %v, want ErrBuildInProgress", err)
	}
	testutil.RequireClosed(t, b.Events(), 10*time.Second, "waiting for the first build to finish")
	b.Wait()

	second, err := sys.Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
	testutil.RequireClosed(t, second.Events(), 10*time.Second, "waiting for the second build to finish")
	if result := second.Wait(); !result.Success {
		t.Errorf("second build failed: %+v", result)
	}
}

func TestStartValidation(t *testing.T) {
	sys := NewSystem()
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{}, "project path is required"},
		{Config{ProjectDir: "x"}, "output path is required"},
		{Config{ProjectDir: filepath.Join(t.TempDir(), "gone"), OutputDir: "y"}, "project path does not exist"},
	}
	for _, tc := range cases {
		_, err := sys.Start(context.Background(), tc.cfg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Start(%+v) error = %v, want %q", tc.cfg, err, tc.want)
		}
	}
}

func TestPackAssetsDisabled(t *testing.T) {
	project := writeProject(t)
	output := filepath.Join(t.TempDir(), "out")

	sys := NewSystem()
	b, err := sys.Start(context.Background(), Config{ProjectDir: project, OutputDir: output})
	if err != nil {
		t.Fatal(err)
	}
	events := drain(t, b)
	result := b.Wait()

	if !result.Success {
		t.Fatalf("build failed: %+v", result)
	}
	if !hasLog(events, "Skipping pack creation (packAssets=false)") {
		t.Error("missing the pack skip log line")
	}
	if _, err := os.Stat(filepath.Join(output, "packs", "Base"+respack.Ext)); !os.IsNotExist(err) {
		t.Error("packs were written with packing disabled")
	}
	if _, err := os.Stat(filepath.Join(output, "packs", manifest.PacksIndexFileName)); !os.IsNotExist(err) {
		t.Error("pack index was written with packing disabled")
	}
	// The staged raw assets ship instead.
	for _, rel := range []string{"assets/images/bg.png", "assets/scripts/intro.nms"} {
		if _, err := os.Stat(filepath.Join(output, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing raw staged asset %s: %v", rel, err)
		}
	}
}

func TestBuildWithLanguagePacks(t *testing.T) {
	project := writeProject(t)
	writeFile(t, filepath.Join(project, "assets", "voices", "en", "hello.ogg"), []byte("english"))
	writeFile(t, filepath.Join(project, "assets", "voices", "ru", "privet.ogg"), []byte("russian"))
	output := filepath.Join(t.TempDir(), "out")

	sys := NewSystem()
	b, err := sys.Start(context.Background(), Config{
		ProjectDir:        project,
		OutputDir:         output,
		PackAssets:        true,
		IncludedLanguages: []string{"en", "ru"},
	})
	if err != nil {
		t.Fatal(err)
	}
	drain(t, b)
	result := b.Wait()
	if !result.Success {
		t.Fatalf("build failed: %+v", result)
	}

	index, err := manifest.LoadPacksIndex(filepath.Join(output, "packs", manifest.PacksIndexFileName))
	if err != nil {
		t.Fatal(err)
	}
	if len(index.Packs) != 3 {
		t.Fatalf("got %d packs, want base plus two language packs", len(index.Packs))
	}
	if index.Packs[0].Type != "Base" || index.Packs[0].Priority != 0 {
		t.Errorf("base entry = %+v", index.Packs[0])
	}
	for i, locale := range []string{"en", "ru"} {
		entry := index.Packs[i+1]
		if entry.Type != "Language" || entry.Locale != locale || entry.Priority != 3 {
			t.Errorf("language entry %d = %+v", i, entry)
		}
	}

	for _, tc := range []struct {
		file  string
		count uint32
	}{
		{"Lang_en" + respack.Ext, 1},
		{"Lang_ru" + respack.Ext, 1},
		{"Base" + respack.Ext, 2},
	} {
		info, err := respack.Inspect(filepath.Join(output, "packs", tc.file))
		if err != nil {
			t.Fatalf("%s: %v", tc.file, err)
		}
		if info.ResourceCount != tc.count {
			t.Errorf("%s has %d resources, want %d", tc.file, info.ResourceCount, tc.count)
		}
	}

	runtimeCfg, err := manifest.LoadRuntimeConfig(filepath.Join(output, "config", manifest.RuntimeConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(runtimeCfg.Localization.AvailableLocales, []string{"en", "ru"}) {
		t.Errorf("available locales = %v", runtimeCfg.Localization.AvailableLocales)
	}
}

func TestSigningRequestWarns(t *testing.T) {
	project := writeProject(t)
	output := filepath.Join(t.TempDir(), "out")

	sys := NewSystem()
	b, err := sys.Start(context.Background(), Config{
		ProjectDir:         project,
		OutputDir:          output,
		SignExecutable:     true,
		SigningCertificate: "dev.pfx",
	})
	if err != nil {
		t.Fatal(err)
	}
	drain(t, b)
	result := b.Wait()

	if !result.Success {
		t.Fatalf("build failed: %+v", result)
	}
	if !containsMatch(result.Warnings, "Code signing requested but not yet implemented") {
		t.Errorf("warnings = %v, want a signing warning", result.Warnings)
	}
}

func TestPlatformLaunchers(t *testing.T) {
	t.Run("windows", func(t *testing.T) {
		project := writeProject(t)
		output := filepath.Join(t.TempDir(), "out")

		sys := NewSystem()
		b, err := sys.Start(context.Background(), Config{
			ProjectDir:     project,
			OutputDir:      output,
			ExecutableName: "MyGame",
			Platform:       PlatformWindows,
		})
		if err != nil {
			t.Fatal(err)
		}
		drain(t, b)
		if result := b.Wait(); !result.Success {
			t.Fatalf("build failed: %+v", result)
		}

		data, err := os.ReadFile(filepath.Join(output, "MyGame_launcher.bat"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "NovelMind Runtime - MyGame") {
			t.Errorf("unexpected launcher content:\n%s", data)
		}
		// The launcher must not shadow the executable name itself.
		if _, err := os.Stat(filepath.Join(output, "MyGame.bat")); !os.IsNotExist(err) {
			t.Errorf("unexpected MyGame.bat in output root: %v", err)
		}
	})

	t.Run("macos", func(t *testing.T) {
		project := writeProject(t)
		output := filepath.Join(t.TempDir(), "out")

		sys := NewSystem()
		b, err := sys.Start(context.Background(), Config{
			ProjectDir:     project,
			OutputDir:      output,
			ExecutableName: "MyGame",
			Platform:       PlatformMacOS,
			PackAssets:     true,
		})
		if err != nil {
			t.Fatal(err)
		}
		drain(t, b)
		if result := b.Wait(); !result.Success {
			t.Fatalf("build failed: %+v", result)
		}

		contents := filepath.Join(output, "MyGame.app", "Contents")
		plist, err := os.ReadFile(filepath.Join(contents, "Info.plist"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(plist), "<string>com.novelmind.MyGame</string>") {
			t.Error("Info.plist is missing the bundle identifier")
		}

		// The app bundle embeds the packs and the runtime config, which
		// requires the config stage to have run before the launcher
		// stage.
		for _, rel := range []string{
			filepath.Join("MacOS", "MyGame"),
			filepath.Join("Resources", "config", manifest.RuntimeConfigFileName),
			filepath.Join("Resources", "packs", "Base"+respack.Ext),
		} {
			if _, err := os.Stat(filepath.Join(contents, rel)); err != nil {
				t.Errorf("app bundle is missing %s: %v", rel, err)
			}
		}
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ExecutableName != DefaultExecutableName {
		t.Errorf("ExecutableName = %q", cfg.ExecutableName)
	}
	if cfg.Version != "1.0.0" || cfg.DefaultLanguage != "en" || cfg.BuildNumber != 1 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestValidateProject(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		issues := ValidateProject(filepath.Join(t.TempDir(), "gone"))
		if len(issues) != 1 || !strings.Contains(issues[0], "project directory does not exist") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		issues := ValidateProject(t.TempDir())
		if len(issues) != 3 {
			t.Fatalf("issues = %v, want missing project.json, scripts, assets", issues)
		}
	})

	t.Run("unparseable project file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "project.json"), []byte(`{"name": }`))
		issues := ValidateProject(dir)
		if !containsMatch(issues, "project.json is not valid") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("valid project", func(t *testing.T) {
		if issues := ValidateProject(writeProject(t)); len(issues) != 0 {
			t.Errorf("issues = %v, want none", issues)
		}
	})
}

func TestEstimateBuildTime(t *testing.T) {
	project := writeProject(t)
	size := directorySize(project)
	base := 5000.0 + float64(size)/(1024*1024)*1000.0

	plain := EstimateBuildTime(Config{ProjectDir: project})
	if want := time.Duration(base * float64(time.Millisecond)); plain != want {
		t.Errorf("plain estimate = %v, want %v", plain, want)
	}

	heavy := EstimateBuildTime(Config{
		ProjectDir:    project,
		Compression:   packcodec.LevelMaximum,
		EncryptAssets: true,
	})
	if want := time.Duration(base * 2.0 * 1.3 * float64(time.Millisecond)); heavy != want {
		t.Errorf("maximum encrypted estimate = %v, want %v", heavy, want)
	}
	if heavy <= plain {
		t.Error("compression and encryption should raise the estimate")
	}
}
