package repository

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var newestFirst = bson.D{
	{Key: "createdAt", Value: int32(-1)},
	{Key: "_id", Value: int32(-1)},
}

// sentCommand returns the next command the client sent, failing unless it
// is named want.
func sentCommand(mt *mtest.T, want string) bson.Raw {
	mt.Helper()
	ev := mt.GetStartedEvent()
	if ev == nil {
		mt.Fatalf("no %s command was sent", want)
	}
	if ev.CommandName != want {
		mt.Fatalf("command = %s, want %s", ev.CommandName, want)
	}
	return ev.Command
}

// docField decodes the document at key in cmd.
func docField(mt *mtest.T, cmd bson.Raw, key string) bson.D {
	mt.Helper()
	val, err := cmd.LookupErr(key)
	if err != nil {
		mt.Fatalf("command has no %q: %v", key, err)
	}
	var d bson.D
	if err := val.Unmarshal(&d); err != nil {
		mt.Fatalf("decode %q: %v", key, err)
	}
	return d
}

func assertSort(mt *mtest.T, cmd bson.Raw, want bson.D) {
	mt.Helper()
	if got := docField(mt, cmd, "sort"); !reflect.DeepEqual(got, want) {
		mt.Errorf("sort = %v, want %v", got, want)
	}
}
