package provision

import (
	"fmt"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/rgeorgiev583/storage-provisioning-tools/blockdev"
	"github.com/rgeorgiev583/storage-provisioning-tools/diskutil"
	"github.com/rgeorgiev583/storage-provisioning-tools/executil"
	"github.com/rgeorgiev583/storage-provisioning-tools/sysconfig"
)

// Default locations of the boot configuration touched by the persistence
// stage. Exported on the Provisioner so tests can point them elsewhere.
const (
	DefaultCrypttabPath   = "/etc/crypttab"
	DefaultFstabPath      = "/etc/fstab"
	DefaultMkinitcpioPath = "/etc/mkinitcpio.conf"
	DefaultGrubDefault    = "/etc/default/grub"
	DefaultGrubCfg        = "/boot/grub/grub.cfg"
)

// initramfsHook unlocks LUKS devices during early boot.
const initramfsHook = "encrypt"

// Provisioner executes the encrypted-volume pipeline: container preparation,
// LUKS formatting, unlock, filesystem creation, mount and optional boot-time
// persistence. It is a straight-line state machine; no stage is retried and
// no rollback is attempted, since the underlying disk operations are not
// reversible anyway.
type Provisioner struct {
	Runner executil.Runner
	Log    *slog.Logger

	// Passphrase is fed to cryptsetup on stdin. When empty, cryptsetup
	// prompts on the controlling terminal.
	Passphrase string

	CrypttabPath   string
	FstabPath      string
	MkinitcpioPath string
	GrubDefault    string
	GrubCfg        string

	// OnStage, when set, is notified of every stage transition.
	OnStage func(Stage)

	// Probe reports whether a path is visible as a block device. Replaced
	// in tests; defaults to blockdev.IsBlockDevice.
	Probe func(string) bool

	stage atomic.Int32
}

// NewProvisioner creates a Provisioner with the default system paths.
func NewProvisioner(runner executil.Runner, log *slog.Logger) *Provisioner {
	return &Provisioner{
		Runner:         runner,
		Log:            log,
		CrypttabPath:   DefaultCrypttabPath,
		FstabPath:      DefaultFstabPath,
		MkinitcpioPath: DefaultMkinitcpioPath,
		GrubDefault:    DefaultGrubDefault,
		GrubCfg:        DefaultGrubCfg,
		Probe:          blockdev.IsBlockDevice,
	}
}

// CurrentStage returns the stage currently executing. Safe to call from
// other goroutines, e.g. a signal handler reporting where an interrupted run
// stopped.
func (p *Provisioner) CurrentStage() Stage {
	return Stage(p.stage.Load())
}

func (p *Provisioner) setStage(s Stage) {
	p.stage.Store(int32(s))
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

// Run executes the pipeline for a validated request. The returned error, if
// any, is an *Error tagged with the failed stage; the device is left exactly
// as the failing stage left it.
func (p *Provisioner) Run(req Request) error {
	p.setStage(StageValidating)
	if err := blockdev.ValidatePath(req.Device); err != nil {
		return &Error{StageValidating, fmt.Errorf("%w: %w", ErrInvalidDevice, err)}
	}

	cfg := diskutil.NewDiskConfig(req.Device, req.MountPoint, req.MapperName, req.Filesystem)
	if diskutil.IsMounted(cfg) {
		return &Error{StageValidating, fmt.Errorf("%w: %s", ErrMountPointBusy, req.MountPoint)}
	}
	if diskutil.IsLUKS(p.Runner, cfg) {
		p.Log.Warn("Device already contains a LUKS container and its contents will be destroyed", "device", req.Device)
	}

	p.Log.Info("Preparing container", "device", req.Device)
	p.setStage(StageContainerPrep)
	container, err := diskutil.OpenPlainContainer(p.Runner, cfg)
	if err != nil {
		return &Error{StageContainerPrep, err}
	}
	if !p.Probe(blockdev.MapperDevicePath(container)) {
		diskutil.ClosePlainContainer(p.Runner, container)
		return &Error{StageContainerPrep, fmt.Errorf("container %s is not visible as a block device", blockdev.MapperDevicePath(container))}
	}
	if err := diskutil.WipeContainer(p.Runner, container); err != nil {
		return &Error{StageContainerPrep, err}
	}
	if err := diskutil.ClosePlainContainer(p.Runner, container); err != nil {
		return &Error{StageContainerPrep, err}
	}

	p.Log.Info("Formatting LUKS container", "device", req.Device)
	p.setStage(StageFormatting)
	if err := diskutil.FormatLUKS(p.Runner, cfg, p.Passphrase); err != nil {
		return &Error{StageFormatting, err}
	}

	p.Log.Info("Unlocking device", "mapper", req.MapperName)
	p.setStage(StageUnlocking)
	if err := diskutil.OpenLUKS(p.Runner, cfg, p.Passphrase); err != nil {
		return &Error{StageUnlocking, err}
	}

	p.Log.Info("Creating filesystem", "type", req.Filesystem, "device", cfg.MapperDevice)
	p.setStage(StageMakingFilesystem)
	if err := diskutil.MakeFilesystem(p.Runner, cfg); err != nil {
		return &Error{StageMakingFilesystem, err}
	}

	p.Log.Info("Mounting filesystem", "mountpoint", req.MountPoint)
	p.setStage(StageMounting)
	if err := diskutil.Mount(p.Runner, cfg); err != nil {
		return &Error{StageMounting, err}
	}

	if req.SkipPersistence {
		p.Log.Info("Skipping boot-time configuration")
		p.setStage(StageDone)
		return nil
	}

	p.setStage(StagePersisting)
	if err := p.persist(req, cfg); err != nil {
		return &Error{StagePersisting, err}
	}

	p.setStage(StageDone)
	return nil
}

// persist records the mapping and mount in the boot configuration: the
// initramfs unlock hook, the bootloader kernel command line (unless
// suppressed) and the crypttab and fstab tables.
func (p *Provisioner) persist(req Request, cfg diskutil.DiskConfig) error {
	p.Log.Info("Adding initramfs hook", "hook", initramfsHook, "config", p.MkinitcpioPath)
	changed, err := sysconfig.AddInitramfsHook(p.MkinitcpioPath, initramfsHook)
	if err != nil {
		return fmt.Errorf("initramfs: %w", err)
	}
	if changed {
		if err := p.Runner.Run(executil.New("mkinitcpio", "-P")); err != nil {
			return fmt.Errorf("initramfs: could not regenerate image: %w", err)
		}
	}

	uuid, err := blockdev.UUID(p.Runner, req.Device)
	if err != nil {
		return fmt.Errorf("table-append: %w", err)
	}

	if !req.SkipBootloader {
		param := fmt.Sprintf("cryptdevice=UUID=%s:%s", uuid, req.MapperName)
		p.Log.Info("Adding kernel parameter", "param", param, "config", p.GrubDefault)
		changed, err := sysconfig.AddKernelParam(p.GrubDefault, param)
		if err != nil {
			return fmt.Errorf("bootloader: %w", err)
		}
		if changed {
			if err := p.Runner.Run(executil.New("grub-mkconfig", "-o", p.GrubCfg)); err != nil {
				return fmt.Errorf("bootloader: could not regenerate configuration: %w", err)
			}
		}
	}

	crypttabLine := sysconfig.CrypttabEntry{
		MapperName: req.MapperName,
		Device:     "UUID=" + uuid,
	}.Line()
	p.Log.Info("Appending crypttab entry", "path", p.CrypttabPath)
	if _, err := sysconfig.AppendLine(p.CrypttabPath, crypttabLine); err != nil {
		return fmt.Errorf("table-append: %w", err)
	}

	fstabLine := sysconfig.FstabEntry{
		Device:     cfg.MapperDevice,
		MountPoint: req.MountPoint,
		Filesystem: req.Filesystem,
		Pass:       2,
	}.Line()
	p.Log.Info("Appending fstab entry", "path", p.FstabPath)
	if _, err := sysconfig.AppendLine(p.FstabPath, fstabLine); err != nil {
		return fmt.Errorf("table-append: %w", err)
	}

	return nil
}
