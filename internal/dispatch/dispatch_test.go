package dispatch

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/auric-audio/auric-core/internal/zone"
)

type commandCall struct {
	zoneID  int
	command string
	param   string
}

type mockRegistry struct {
	snaps    map[int]zone.Snapshot
	commands []commandCall
	groups   []string
}

func (m *mockRegistry) Get(id int) (zone.Snapshot, error) {
	s, ok := m.snaps[id]
	if !ok {
		return zone.Snapshot{}, fmt.Errorf("zone %d not found", id)
	}
	return s, nil
}

func (m *mockRegistry) Zones() []zone.Snapshot {
	out := make([]zone.Snapshot, 0, len(m.snaps))
	for id := 1; id <= 16; id++ {
		if s, ok := m.snaps[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockRegistry) SendCommand(zoneID int, command, param string) error {
	m.commands = append(m.commands, commandCall{zoneID, command, param})
	return nil
}

func (m *mockRegistry) SendGroupCommand(command, groupType, idList string) error {
	m.groups = append(m.groups, command+"/"+groupType+"/"+idList)
	return nil
}

func newTestDispatcher() (*Dispatcher, *mockRegistry) {
	reg := &mockRegistry{snaps: map[int]zone.Snapshot{
		5: {ID: 5, Name: "Kitchen", Track: zone.Track{PlayerID: 5, Volume: 12, Mode: "pause", Players: []int{}}},
	}}
	d := New(Options{
		Registry: reg,
		MAC:      "50:4f:94:ff:1b:b3",
		Name:     "Auric Core",
	})
	return d, reg
}

// decode unwraps an envelope into its result key and raw fields.
func decode(t *testing.T, raw []byte) map[string]json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("envelope is not valid json: %v\n%s", err, raw)
	}
	return fields
}

func commandEcho(t *testing.T, fields map[string]json.RawMessage) string {
	t.Helper()
	var echo string
	if err := json.Unmarshal(fields["command"], &echo); err != nil {
		t.Fatalf("command field missing or invalid: %v", err)
	}
	return echo
}

func TestHandle_GetRadiosEnvelope(t *testing.T) {
	d, _ := newTestDispatcher()

	fields := decode(t, d.Handle("audio/cfg/getradios"))

	if _, ok := fields["getradios_result"]; !ok {
		t.Errorf("expected getradios_result key, got %v", keys(fields))
	}
	if echo := commandEcho(t, fields); echo != "audio/cfg/getradios" {
		t.Errorf("command echo = %q", echo)
	}
}

func TestHandle_EchoIsVerbatim(t *testing.T) {
	d, _ := newTestDispatcher()

	// Trailing whitespace is trimmed for matching but echoed untouched.
	fields := decode(t, d.Handle("audio/cfg/getradios \n"))

	if _, ok := fields["getradios_result"]; !ok {
		t.Errorf("trailing whitespace broke matching, got %v", keys(fields))
	}
	if echo := commandEcho(t, fields); echo != "audio/cfg/getradios \n" {
		t.Errorf("command echo = %q, want verbatim original", echo)
	}
}

func TestHandle_ZoneCommand(t *testing.T) {
	d, reg := newTestDispatcher()

	fields := decode(t, d.Handle("audio/5/volume/3"))

	if len(reg.commands) != 1 {
		t.Fatalf("expected exactly one command, got %v", reg.commands)
	}
	if got := reg.commands[0]; got != (commandCall{5, "volume", "3"}) {
		t.Errorf("command = %+v, want zone 5 volume 3", got)
	}
	if _, ok := fields["volume_result"]; !ok {
		t.Errorf("expected volume_result ack, got %v", keys(fields))
	}
}

func TestHandle_ZoneCommandWithoutParam(t *testing.T) {
	d, reg := newTestDispatcher()

	d.Handle("audio/5/pause")

	if len(reg.commands) != 1 || reg.commands[0] != (commandCall{5, "pause", ""}) {
		t.Errorf("commands = %v, want zone 5 pause", reg.commands)
	}
}

func TestHandle_ZoneCommandOutsideVocabulary(t *testing.T) {
	d, reg := newTestDispatcher()

	d.Handle("audio/5/selfdestruct")

	if len(reg.commands) != 0 {
		t.Errorf("unknown verb must not reach the registry, got %v", reg.commands)
	}
}

func TestHandle_Status(t *testing.T) {
	d, _ := newTestDispatcher()

	fields := decode(t, d.Handle("audio/5/status"))

	var tracks []zone.Track
	if err := json.Unmarshal(fields["status_result"], &tracks); err != nil {
		t.Fatalf("status_result missing or invalid: %v", err)
	}
	if len(tracks) != 1 || tracks[0].PlayerID != 5 || tracks[0].Volume != 12 {
		t.Errorf("tracks = %+v, want zone 5 snapshot", tracks)
	}
}

func TestHandle_GetQueue(t *testing.T) {
	d, _ := newTestDispatcher()

	fields := decode(t, d.Handle("audio/5/getqueue/0/50"))

	var folders []folder
	if err := json.Unmarshal(fields["getqueue_result"], &folders); err != nil {
		t.Fatalf("getqueue_result missing or invalid: %v", err)
	}
	if len(folders) != 1 || folders[0].ID != 5 || folders[0].Start != 0 {
		t.Errorf("folders = %+v", folders)
	}
}

func TestHandle_GroupCommand(t *testing.T) {
	d, reg := newTestDispatcher()

	fields := decode(t, d.Handle("audio/cfg/dgroup/join/static/14,14,15"))

	if len(reg.groups) != 1 || reg.groups[0] != "join/static/14,14,15" {
		t.Errorf("groups = %v", reg.groups)
	}
	if _, ok := fields["dgroup_result"]; !ok {
		t.Errorf("expected dgroup_result ack, got %v", keys(fields))
	}
}

func TestHandle_IAmAMiniserver(t *testing.T) {
	d, _ := newTestDispatcher()

	fields := decode(t, d.Handle("audio/cfg/iamaminiserver/192.168.1.10"))

	if _, ok := fields["iamamusicserver_result"]; !ok {
		t.Errorf("expected iamamusicserver_result, got %v", keys(fields))
	}
}

func TestHandle_PlaylistNameOverride(t *testing.T) {
	d, _ := newTestDispatcher()

	fields := decode(t, d.Handle("audio/cfg/getplaylists2/lms/0/50"))

	if _, ok := fields["getplaylists2_result"]; !ok {
		t.Errorf("expected getplaylists2_result, got %v", keys(fields))
	}
}

func TestHandle_Fallback(t *testing.T) {
	d, reg := newTestDispatcher()

	fields := decode(t, d.Handle("audio/cfg/frobnicate"))

	if _, ok := fields["frobnicate_result"]; !ok {
		t.Errorf("expected frobnicate_result ack, got %v", keys(fields))
	}
	if len(reg.commands) != 0 || len(reg.groups) != 0 {
		t.Error("fallback must not reach the registry")
	}
}

func TestHandle_NonNumericZoneFallsThrough(t *testing.T) {
	d, reg := newTestDispatcher()

	d.Handle("audio/kitchen/volume/3")

	if len(reg.commands) != 0 {
		t.Errorf("non-numeric zone id must not dispatch, got %v", reg.commands)
	}
}

func TestSyncedPlayers_DerivedFromState(t *testing.T) {
	d, reg := newTestDispatcher()
	reg.snaps[1] = zone.Snapshot{ID: 1, Track: zone.Track{PlayerID: 1, Players: []int{1, 2}}}
	reg.snaps[2] = zone.Snapshot{ID: 2, Track: zone.Track{PlayerID: 2, Players: []int{1, 2}}}

	fields := decode(t, d.Handle("audio/cfg/getsyncedplayers"))

	var groups []syncedGroup
	if err := json.Unmarshal(fields["getsyncedplayers_result"], &groups); err != nil {
		t.Fatalf("getsyncedplayers_result invalid: %v", err)
	}
	if len(groups) != 1 || groups[0].Master != 1 {
		t.Errorf("groups = %+v, want one group mastered by zone 1", groups)
	}
}

func TestEnvelopeName(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"audio/cfg/getradios", "getradios"},
		{"audio/5/volume/3", "volume"},
		{"audio/5/status", "status"},
		{"audio/9/42", "audio"},
	}
	for _, tt := range tests {
		if got := envelopeName(tt.command); got != tt.want {
			t.Errorf("envelopeName(%q) = %q, want %q", tt.command, got, tt.want)
		}
	}
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
