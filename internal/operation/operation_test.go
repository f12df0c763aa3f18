package operation

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomikpanda/localenv/internal/color"
	"github.com/atomikpanda/localenv/internal/config"
	"github.com/atomikpanda/localenv/internal/errors"
	"github.com/atomikpanda/localenv/internal/installer"
	"github.com/atomikpanda/localenv/internal/platform"
	"github.com/atomikpanda/localenv/internal/system/systemtest"
)

func TestMain(m *testing.M) {
	color.SetEnabled(false)
	os.Exit(m.Run())
}

type fakeInstaller struct {
	kind       config.InstallerKind
	pkgs       []installer.Package
	listErr    error
	installErr error

	lists     int
	installed []string
}

func (f *fakeInstaller) Kind() config.InstallerKind { return f.kind }

func (f *fakeInstaller) ListInstalled(ctx context.Context) ([]installer.Package, error) {
	f.lists++
	return f.pkgs, f.listErr
}

func (f *fakeInstaller) Install(ctx context.Context, cmd config.Command) error {
	f.installed = append(f.installed, cmd.Bin)
	return f.installErr
}

func cargoWith(bins ...string) *fakeInstaller {
	f := &fakeInstaller{kind: config.InstallerCargo}
	for _, b := range bins {
		f.pkgs = append(f.pkgs, installer.Package{Name: b, Bin: b, Bins: []string{b}})
	}
	return f
}

func fileEntry(desc, env, path, content, mode string) config.Entry {
	return config.Entry{File: &config.File{
		Description: desc,
		EnvPath:     config.EnvPath{Env: env, Path: path},
		ContentFrom: content,
		Mode:        mode,
	}}
}

func linkEntry(desc string, cond *config.Condition, orig, link config.EnvPath) config.Entry {
	return config.Entry{SymbolicLink: &config.SymbolicLink{
		Description: desc,
		Condition:   cond,
		Original:    orig,
		Link:        link,
	}}
}

func kinds(chain *Chain) []string {
	var out []string
	for _, a := range chain.Actions() {
		out = append(out, fmt.Sprintf("%T:%s", a.Kind, Title(a)))
	}
	return out
}

func TestPlanFilesystemOrderAndConditions(t *testing.T) {
	cfg := &config.Config{Spec: config.Spec{Filesystem: config.Filesystem{Entries: []config.Entry{
		fileEntry("bash", "HOME", ".bashrc", "bashrc", "644"),
		linkEntry("mac only", &config.Condition{OS: platform.Mac}, config.EnvPath{Path: "/a"}, config.EnvPath{Path: "/b"}),
		linkEntry("linux only", &config.Condition{OS: platform.Linux}, config.EnvPath{Path: "/c"}, config.EnvPath{Path: "/d"}),
		fileEntry("zsh", "HOME", ".zshrc", "zshrc", "644"),
	}}}}

	chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), installer.NewRegistryOf())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"operation.CreateFile:create file $HOME/.bashrc",
		"operation.CreateSymbolicLink:create symlink /d",
		"operation.CreateFile:create file $HOME/.zshrc",
	}, kinds(chain))
	for _, a := range chain.Actions() {
		assert.Equal(t, FamilyFilesystem, a.Kind.Family())
		_, done := a.Outcome()
		assert.False(t, done)
	}
}

func TestPlanClonesEntries(t *testing.T) {
	cond := &config.Condition{OS: platform.Linux}
	cfg := &config.Config{Spec: config.Spec{Filesystem: config.Filesystem{Entries: []config.Entry{
		linkEntry("l", cond, config.EnvPath{Path: "/a"}, config.EnvPath{Path: "/b"}),
	}}}}

	chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), nil)
	require.NoError(t, err)
	cond.OS = platform.Mac

	k := chain.Actions()[0].Kind.(CreateSymbolicLink)
	assert.Equal(t, platform.Linux, k.Entry.Condition.OS)
}

func TestPlanDirectoryNotImplemented(t *testing.T) {
	cfg := &config.Config{Spec: config.Spec{Filesystem: config.Filesystem{Entries: []config.Entry{
		fileEntry("bash", "HOME", ".bashrc", "bashrc", "644"),
		{Directory: &config.Directory{Description: "dir", EnvPath: config.EnvPath{Path: "/x"}}},
	}}}}

	chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), nil)
	require.Error(t, err)
	assert.Nil(t, chain)
	assert.True(t, errors.IsKind(err, errors.KindInternal))
	assert.Contains(t, err.Error(), "not implemented")
}

func TestPlanCommands(t *testing.T) {
	cargo := cargoWith("rg", "bat")
	cfg := &config.Config{Spec: config.Spec{Commands: []config.Command{
		{Bin: "rg", Version: "13.0.0", Installer: config.InstallerCargo},
		{Bin: "fd", Installer: config.InstallerCargo},
		{Bin: "bat", Installer: config.InstallerCargo},
		{Bin: "exa", Installer: config.InstallerCargo},
	}}}

	chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), installer.NewRegistryOf(cargo))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"operation.InstallCommand:install fd",
		"operation.InstallCommand:install exa",
	}, kinds(chain))
	assert.Equal(t, 1, cargo.lists, "one probe per installer kind")
	assert.Equal(t, FamilyCommand, chain.Actions()[0].Kind.Family())
}

func TestPlanOrdersInstallersByFirstDeclaration(t *testing.T) {
	const brewKind config.InstallerKind = "brew"
	cfg := &config.Config{Spec: config.Spec{Commands: []config.Command{
		{Bin: "a", Installer: brewKind},
		{Bin: "b", Installer: config.InstallerCargo},
		{Bin: "c", Installer: brewKind},
	}}}

	for i := 0; i < 20; i++ {
		cargo := cargoWith()
		brew := &fakeInstaller{kind: brewKind}
		reg := installer.NewRegistryOf(cargo, brew)

		chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), reg)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"operation.InstallCommand:install a",
			"operation.InstallCommand:install c",
			"operation.InstallCommand:install b",
		}, kinds(chain))
		assert.Equal(t, 1, brew.lists)
		assert.Equal(t, 1, cargo.lists)
	}
}

func TestPlanCommandsMatchesRepresentativeBinOnly(t *testing.T) {
	cargo := &fakeInstaller{kind: config.InstallerCargo, pkgs: []installer.Package{
		{Name: "cargo-edit", Bin: "cargo-add", Bins: []string{"cargo-add", "cargo-rm"}},
	}}
	cfg := &config.Config{Spec: config.Spec{Commands: []config.Command{
		{Bin: "cargo-add", Installer: config.InstallerCargo},
		{Bin: "cargo-rm", Installer: config.InstallerCargo},
		{Bin: "cargo-ad", Installer: config.InstallerCargo},
	}}}

	chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), installer.NewRegistryOf(cargo))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"operation.InstallCommand:install cargo-rm",
		"operation.InstallCommand:install cargo-ad",
	}, kinds(chain))
}

func TestPlanIsIdempotentOnceInstalled(t *testing.T) {
	cfg := &config.Config{Spec: config.Spec{Commands: []config.Command{
		{Bin: "rg", Installer: config.InstallerCargo},
		{Bin: "bat", Installer: config.InstallerCargo},
	}}}
	reg := installer.NewRegistryOf(cargoWith("rg", "bat"))
	sys := systemtest.New(platform.Linux)

	for i := 0; i < 2; i++ {
		chain, err := Plan(context.Background(), cfg, sys, reg)
		require.NoError(t, err)
		assert.True(t, chain.Empty())
	}
	assert.Zero(t, sys.MutatingCalls())
}

func TestPlanProbeFailureAborts(t *testing.T) {
	cargo := &fakeInstaller{kind: config.InstallerCargo, listErr: errors.CommandNotFound("cargo", nil)}
	cfg := &config.Config{Spec: config.Spec{
		Filesystem: config.Filesystem{Entries: []config.Entry{fileEntry("bash", "HOME", ".bashrc", "bashrc", "644")}},
		Commands:   []config.Command{{Bin: "rg", Installer: config.InstallerCargo}},
	}}

	chain, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), installer.NewRegistryOf(cargo))
	require.Error(t, err)
	assert.Nil(t, chain)
	assert.True(t, errors.IsKind(err, errors.KindCommandNotFound))
}

func TestPlanUnknownInstaller(t *testing.T) {
	cfg := &config.Config{Spec: config.Spec{Commands: []config.Command{{Bin: "rg", Installer: "brew"}}}}

	_, err := Plan(context.Background(), cfg, systemtest.New(platform.Linux), installer.NewRegistryOf())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInternal))
}

func TestPlanRequiresConfigAndSystem(t *testing.T) {
	_, err := Plan(context.Background(), nil, systemtest.New(platform.Linux), nil)
	assert.Error(t, err)
	_, err = Plan(context.Background(), &config.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestOutcomeRecordedOnce(t *testing.T) {
	a := NewChain().Add(InstallCommand{Command: config.Command{Bin: "rg"}})
	a.record(nil)
	assert.Panics(t, func() { a.record(nil) })

	o, ok := a.Outcome()
	require.True(t, ok)
	assert.True(t, o.Success())
}

func TestChainFailedAndErr(t *testing.T) {
	chain := NewChain()
	chain.Add(InstallCommand{Command: config.Command{Bin: "a"}}).record(nil)
	chain.Add(InstallCommand{Command: config.Command{Bin: "b"}}).record(errors.EnvVarUndefined("X"))
	chain.Add(InstallCommand{Command: config.Command{Bin: "c"}})

	require.Len(t, chain.Failed(), 1)
	assert.Equal(t, "install b", Title(chain.Failed()[0]))
	assert.True(t, errors.IsKind(chain.Err(), errors.KindEnvVarUndefined))

	assert.NoError(t, NewChain().Err())
}
