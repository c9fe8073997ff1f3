// Package docker inspects the local stack through the Docker daemon.
package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/wechange-eg/cloudctl/internal/constants"
)

// Manager handles interactions with the local Docker daemon
type Manager struct {
	cli *client.Client
}

// NewManager creates a Docker client connected to the local daemon.
// DOCKER_HOST and friends are honored, defaulting to the unix socket.
func NewManager() (*Manager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Manager{cli: cli}, nil
}

// Close releases the client connection.
func (m *Manager) Close() error {
	return m.cli.Close()
}

// Ping verifies the daemon is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}
	return nil
}

// ListSiteContainers returns all containers labeled for the site,
// stopped ones included.
func (m *Manager) ListSiteContainers(ctx context.Context, site string) ([]types.Container, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("label", fmt.Sprintf("%s=%s", constants.SiteLabel, site))

	return m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
}

// ServiceStatus is one row of the stack status table.
type ServiceStatus struct {
	Service string
	Name    string
	State   string
	Status  string
	Ports   string
}

// SiteStatus returns the status of every stack container of a site,
// ordered db, app, web, office, proxy.
func (m *Manager) SiteStatus(ctx context.Context, site string) ([]ServiceStatus, error) {
	containers, err := m.ListSiteContainers(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	rows := make([]ServiceStatus, 0, len(containers))
	for _, c := range containers {
		rows = append(rows, ServiceStatus{
			Service: c.Labels[constants.ServiceLabel],
			Name:    containerName(c),
			State:   c.State,
			Status:  c.Status,
			Ports:   formatPorts(c.Ports),
		})
	}
	sortByTopology(rows)
	return rows, nil
}

// containerName strips the leading slash Docker puts on names.
func containerName(c types.Container) string {
	if len(c.Names) == 0 {
		return c.ID[:12]
	}
	return strings.TrimPrefix(c.Names[0], "/")
}

// formatPorts renders published ports as host->container pairs.
func formatPorts(ports []types.Port) string {
	var parts []string
	for _, p := range ports {
		if p.PublicPort == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, p.Type))
	}
	return strings.Join(parts, ", ")
}

func sortByTopology(rows []ServiceStatus) {
	rank := make(map[string]int)
	for i, name := range constants.ServiceNames() {
		rank[name] = i
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, iKnown := rank[rows[i].Service]
		rj, jKnown := rank[rows[j].Service]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return rows[i].Name < rows[j].Name
		}
	})
}

// WriteStatusTable prints the rows as an aligned table.
func WriteStatusTable(out io.Writer, rows []ServiceStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCONTAINER\tSTATE\tSTATUS\tPORTS")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.Service, row.Name, row.State, row.Status, row.Ports)
	}
	w.Flush()
}
