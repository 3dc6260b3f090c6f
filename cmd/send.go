package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/dispatch"
	"github.com/smazurov/ledring/internal/logging"
	"github.com/smazurov/ledring/internal/nats"
	"github.com/smazurov/ledring/internal/serial"
	"github.com/spf13/cobra"
)

// sendOptions are the flags shared by send and color.
type sendOptions struct {
	timeout time.Duration
	hold    bool
	natsURL string
}

func (o *sendOptions) register(c *cobra.Command) {
	c.Flags().DurationVar(&o.timeout, "timeout", 15*time.Second, "Give up if the ring cannot be reached in this time")
	c.Flags().BoolVar(&o.hold, "hold", false, "Keep a pulse running until interrupted")
	c.Flags().StringVar(&o.natsURL, "nats", "", "Send through a running daemon at this NATS URL instead of opening the port")
}

// CreateSendCmd creates the send command.
func CreateSendCmd() *cobra.Command {
	var opts sendOptions

	c := &cobra.Command{
		Use:   "send [command]",
		Short: "Send one command to the LED ring",
		Long: `Opens the serial port, waits for the controller to settle and writes a single command such as ` +
			`"1", "rgb:255,0,0" or "pulse:0,0,255,2". With --hold a pulse is retransmitted until Ctrl-C. ` +
			`With --nats the command goes to a running daemon instead, which keeps the port open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runSend(c, args[0], opts)
		},
	}
	opts.register(c)
	return c
}

func runSend(c *cobra.Command, text string, opts sendOptions) error {
	if err := command.Validate(text); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.natsURL != "" {
		return sendViaNATS(ctx, c.OutOrStdout(), text, opts)
	}
	return sendDirect(ctx, c.OutOrStdout(), text, opts)
}

func sendViaNATS(ctx context.Context, out io.Writer, text string, opts sendOptions) error {
	pub, err := nats.NewPublisher(opts.natsURL, logging.GetLogger("nats"))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer pub.Close()

	reqCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if err := pub.Send(reqCtx, text); err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent %s via %s\n", text, opts.natsURL)
	return nil
}

func sendDirect(ctx context.Context, out io.Writer, text string, opts sendOptions) error {
	logger := logging.GetLogger("serial")

	opener, err := serial.OpenerFor(settings.Driver)
	if err != nil {
		return err
	}

	mgr := serial.NewManager(serial.Options{
		Port:        settings.Port,
		BaudRate:    settings.BaudRate,
		SettleDelay: settings.SettleDelay,
		Opener:      opener,
		Logger:      logger,
	})
	defer func() { _ = mgr.Close() }()

	connectCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if err := mgr.Connect(connectCtx); err != nil {
		return fmt.Errorf("connect to %s: %w", settings.Port, err)
	}

	if command.IsPulse(text) && opts.hold {
		d := dispatch.New(mgr, dispatch.Options{DefaultDelay: settings.PulseDelay, Logger: logger})
		defer d.Close()

		if err := d.Dispatch(text); err != nil {
			return err
		}
		st := d.Status()
		fmt.Fprintf(out, "Pulsing %s every %v, press Ctrl-C to stop\n", text, st.Session.Period)
		<-ctx.Done()
		return nil
	}

	if _, err := mgr.Send(text); err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent %s to %s\n", text, settings.Port)
	return nil
}
