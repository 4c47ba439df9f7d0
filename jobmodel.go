package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ============================================================================
// VALUE OBJECTS
// ============================================================================
// Every form section edits exactly one of these. They are passed by value and
// replaced wholesale on edit; Clone deep-copies the slices so two sections
// never share a backing array across an update.

// DockerAuth holds optional registry credentials for a private image
type DockerAuth struct {
	Username    string
	Password    string
	RegistryURI string
}

// IsZero reports whether no credential was entered
func (a DockerAuth) IsZero() bool {
	return a.Username == "" && a.Password == "" && a.RegistryURI == ""
}

// DockerInfo describes the image a task role runs in
type DockerInfo struct {
	URI  string
	Auth DockerAuth
}

// Port is one labeled port request, e.g. "ssh" -> 1
type Port struct {
	Label string
	Count int
}

// ContainerSize is the per-instance resource request
type ContainerSize struct {
	GPU      int
	CPU      int
	MemoryMB int
}

// Completion is the task role completion policy
type Completion struct {
	MinFailedInstances    int
	MinSucceededInstances int
}

// Deployment holds commands run before and after the task role commands
type Deployment struct {
	PreCommands  []string
	PostCommands []string
}

// Clone returns a copy that shares no slices with d
func (d Deployment) Clone() Deployment {
	return Deployment{
		PreCommands:  cloneStrings(d.PreCommands),
		PostCommands: cloneStrings(d.PostCommands),
	}
}

// IsZero reports whether neither command list has content
func (d Deployment) IsZero() bool {
	return len(nonEmptyLines(d.PreCommands)) == 0 && len(nonEmptyLines(d.PostCommands)) == 0
}

// JobTaskRole is the content of one task role tab
type JobTaskRole struct {
	Name                   string
	Instances              int
	Commands               []string
	DockerInfo             DockerInfo
	IsContainerSizeEnabled bool
	ContainerSize          ContainerSize
	Ports                  []Port
	TaskRetryCount         int
	Completion             Completion
	Deployment             Deployment
}

// NewJobTaskRole returns a task role with the defaults used by the form
func NewJobTaskRole(name string) JobTaskRole {
	return JobTaskRole{
		Name:      name,
		Instances: 1,
		DockerInfo: DockerInfo{
			URI: defaultDockerURI,
		},
		ContainerSize: DefaultContainerSize(1),
		Completion: Completion{
			MinFailedInstances:    1,
			MinSucceededInstances: -1,
		},
	}
}

// Clone returns a copy that shares no slices with r
func (r JobTaskRole) Clone() JobTaskRole {
	c := r
	c.Commands = cloneStrings(r.Commands)
	if r.Ports != nil {
		c.Ports = make([]Port, len(r.Ports))
		copy(c.Ports, r.Ports)
	}
	c.Deployment = r.Deployment.Clone()
	return c
}

// JobInformation is the job-level part of the form
type JobInformation struct {
	Name           string
	VirtualCluster string
	JobRetryCount  int
}

const defaultDockerURI = "openpai/standard:python_3.6-pytorch_1.2.0-gpu"

// DefaultContainerSize derives the resource request from a GPU count.
// Zero GPUs still gets one CPU so the task role is schedulable.
func DefaultContainerSize(gpu int) ContainerSize {
	if gpu <= 0 {
		return ContainerSize{GPU: 0, CPU: 1, MemoryMB: 4096}
	}
	return ContainerSize{
		GPU:      gpu,
		CPU:      4 * gpu,
		MemoryMB: 8192 * gpu,
	}
}

// defaultJobName mirrors the portal's "<user>_<random>" naming
func defaultJobName(user string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if user == "" {
		return "job_" + suffix
	}
	return fmt.Sprintf("%s_%s", user, suffix)
}

// defaultTaskRoleName finds the first "taskroleN" name not already used
func defaultTaskRoleName(existing []JobTaskRole) string {
	used := make(map[string]bool, len(existing))
	for _, r := range existing {
		used[r.Name] = true
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("taskrole%d", i)
		if i == 1 {
			name = "taskrole"
		}
		if !used[name] {
			return name
		}
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// nonEmptyLines drops blank entries, which the editor produces for empty lines
func nonEmptyLines(in []string) []string {
	var out []string
	for _, line := range in {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
