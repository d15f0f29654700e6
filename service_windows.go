//go:build windows

// Windows service support via github.com/kardianos/service. Lets the
// notes service run as a background service with proper Start/Stop
// handling from the service control manager.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kardianos/service"
)

// Program implements service.Interface. It wraps the application run
// loop and provides the Start/Stop lifecycle methods.
type Program struct {
	ctx    context.Context
	cancel context.CancelFunc
	// exit is closed when the run loop has returned
	exit chan struct{}
	// runErr holds the run loop's result, read after exit closes
	runErr error
}

// Start is called by the service control manager. It launches the
// application in a goroutine and returns immediately.
func (p *Program) Start(s service.Service) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.exit = make(chan struct{})

	go p.run()

	return nil
}

// Stop signals the application to shut down and waits for it to finish.
func (p *Program) Stop(s service.Service) error {
	p.cancel()

	select {
	case <-p.exit:
	case <-time.After(90 * time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}

	return p.runErr
}

func (p *Program) run() {
	defer close(p.exit)
	p.runErr = run(p.ctx)
}

// ServiceConfig returns the service configuration for Windows.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "SimpleNotesApp",
		DisplayName: "Simple Notes Service",
		Description: "Notes web service with tagging, PDF import, and AI image generation",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
}

// RunAsService runs the application as a Windows service.
// Returns true if running as a service, false if running interactively.
func RunAsService() (bool, error) {
	prg := &Program{}

	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return false, fmt.Errorf("failed to create service: %w", err)
	}

	if service.Interactive() {
		return false, nil
	}

	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}

	return true, nil
}

func newService() (service.Service, error) {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

// InstallService installs the application as a Windows service.
func InstallService() error {
	s, err := newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}
	fmt.Println("Service installed successfully")
	return nil
}

// UninstallService removes the Windows service.
func UninstallService() error {
	s, err := newService()
	if err != nil {
		return err
	}
	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("failed to uninstall service: %w", err)
	}
	fmt.Println("Service uninstalled successfully")
	return nil
}

// StartService starts the Windows service.
func StartService() error {
	s, err := newService()
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	fmt.Println("Service started successfully")
	return nil
}

// StopService stops the Windows service.
func StopService() error {
	s, err := newService()
	if err != nil {
		return err
	}
	if err := s.Stop(); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}
	fmt.Println("Service stopped successfully")
	return nil
}

// RestartService stops and then starts the Windows service.
func RestartService() error {
	s, err := newService()
	if err != nil {
		return err
	}
	if err := s.Restart(); err != nil {
		return fmt.Errorf("failed to restart service: %w", err)
	}
	fmt.Println("Service restarted successfully")
	return nil
}

// ServiceStatus returns the current status of the Windows service.
func ServiceStatus() (service.Status, error) {
	s, err := newService()
	if err != nil {
		return service.StatusUnknown, err
	}
	status, err := s.Status()
	if err != nil {
		return service.StatusUnknown, fmt.Errorf("failed to get service status: %w", err)
	}
	return status, nil
}

// PrintServiceUsage prints the help text for service commands.
func PrintServiceUsage() {
	fmt.Println("Simple Notes Service Management")
	fmt.Println()
	fmt.Println("Usage: simple-notes-app.exe <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install    Install the application as a Windows service")
	fmt.Println("  uninstall  Remove the Windows service (alias: remove)")
	fmt.Println("  start      Start the Windows service")
	fmt.Println("  stop       Stop the Windows service")
	fmt.Println("  restart    Restart the Windows service (stop then start)")
	fmt.Println("  status     Show the current service status")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Run without arguments to start the application in foreground mode.")
}

// HandleServiceCommand dispatches service management subcommands. The
// args slice excludes the program name. Returns true if a command was
// handled, false if the application should start normally.
func HandleServiceCommand(args []string) bool {
	if len(args) < 1 {
		return false
	}

	var err error
	switch args[0] {
	case "install":
		err = InstallService()
	case "uninstall", "remove":
		err = UninstallService()
	case "start":
		err = StartService()
	case "stop":
		err = StopService()
	case "restart":
		err = RestartService()
	case "status":
		status, statusErr := ServiceStatus()
		if statusErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", statusErr)
			os.Exit(1)
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service is running")
		case service.StatusStopped:
			fmt.Println("Service is stopped")
		default:
			fmt.Println("Service status unknown")
		}
		return true
	case "help", "-h", "--help", "-help":
		PrintServiceUsage()
		return true
	default:
		return false
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return true
}
