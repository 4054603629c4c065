package postgres

const schema = `
CREATE TABLE IF NOT EXISTS torrents
(
    info_hash        char(40)    NOT NULL PRIMARY KEY,
    seeders          bigint      NOT NULL DEFAULT 0,
    leechers         bigint      NOT NULL DEFAULT 0,
    completed        bigint      NOT NULL DEFAULT 0,
    created_on       timestamptz NOT NULL DEFAULT now(),
    stats_updated_on timestamptz NULL
);

CREATE TABLE IF NOT EXISTS tracker_keys
(
    tracker_key_id bigserial   NOT NULL PRIMARY KEY,
    user_id        bigint      NOT NULL,
    tracker_key    varchar(64) NOT NULL,
    valid_until    bigint      NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tracker_keys_user ON tracker_keys (user_id);
`

const schemaDrop = `
DROP TABLE IF EXISTS tracker_keys;
DROP TABLE IF EXISTS torrents;
`
